package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// First-run process: ensure a learner profile exists before any other
// operation touches it.
// Flow: Validate → Check Existence → Create Profile → Set Parent PIN →
//
//	Initialize Progress → Welcome Toast → Publish Event
//
// The hub is single-profile by default ("Leo"), so onboarding is normally
// triggered once per install, on the first request that names a learner.
// ══════════════════════════════════════════════════════════════════════════════

// PIN length accepted by the parental gate.
const (
	MinPINLength = 4
	MaxPINLength = 8
)

// OnboardingInput contains the data required to set up a profile.
type OnboardingInput struct {
	// LearnerID is the profile identifier (required).
	LearnerID string

	// Name overrides the default display name when set.
	Name string

	// ParentPIN configures the parental gate when set. Digits only.
	ParentPIN string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks if the input is valid for onboarding.
func (i OnboardingInput) Validate() error {
	if i.LearnerID == "" {
		return errors.New("onboarding: learner ID is required")
	}
	if i.ParentPIN != "" {
		if len(i.ParentPIN) < MinPINLength || len(i.ParentPIN) > MaxPINLength {
			return fmt.Errorf("onboarding: parent PIN must be %d-%d digits", MinPINLength, MaxPINLength)
		}
		for _, r := range i.ParentPIN {
			if r < '0' || r > '9' {
				return errors.New("onboarding: parent PIN must be digits only")
			}
		}
	}
	return nil
}

// OnboardingResult contains the outcome of an onboarding run.
type OnboardingResult struct {
	// Learner is the ready profile, freshly created or already present.
	Learner *learner.Learner

	// Tracker is the learner's progress, empty for a fresh profile.
	Tracker *progress.Tracker

	// Created reports whether this run created the profile.
	Created bool

	// PINConfigured reports whether this run set the parental gate PIN.
	PINConfigured bool

	// OnboardedAt is when the run completed.
	OnboardedAt time.Time
}

// OnboardingStep represents a step in the onboarding process.
type OnboardingStep string

const (
	StepValidateInput      OnboardingStep = "validate_input"
	StepCheckExistence     OnboardingStep = "check_existence"
	StepCreateProfile      OnboardingStep = "create_profile"
	StepSetParentPIN       OnboardingStep = "set_parent_pin"
	StepInitializeProgress OnboardingStep = "initialize_progress"
	StepWelcomeToast       OnboardingStep = "welcome_toast"
	StepPublishEvent       OnboardingStep = "publish_event"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSaga creates and prepares learner profiles.
type OnboardingSaga struct {
	learnerRepo  learner.Repository
	progressRepo progress.Repository
	toasts       *notification.Queue
	publisher    shared.EventPublisher

	bcryptCost int
}

// NewOnboardingSaga creates the saga with all dependencies.
// Toasts and publisher may be nil.
func NewOnboardingSaga(
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	toasts *notification.Queue,
	publisher shared.EventPublisher,
) *OnboardingSaga {
	return &OnboardingSaga{
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		toasts:       toasts,
		publisher:    publisher,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

// Execute ensures the profile exists and is ready to use. Running it for
// an existing profile is a cheap no-op apart from an optional PIN update.
func (s *OnboardingSaga) Execute(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	if err := input.Validate(); err != nil {
		return nil, &OnboardingError{Step: StepValidateInput, LearnerID: input.LearnerID, Cause: err}
	}

	result := &OnboardingResult{}

	// Step 1: look for an existing profile.
	existing, err := s.learnerRepo.GetByID(ctx, input.LearnerID)
	switch {
	case err == nil:
		result.Learner = existing
	case shared.IsNotFound(err):
		// Step 2: create the default profile.
		l := learner.NewLearner(input.LearnerID)
		if input.Name != "" {
			if err := l.Rename(input.Name); err != nil {
				return nil, &OnboardingError{Step: StepCreateProfile, LearnerID: input.LearnerID, Cause: err}
			}
		}
		if err := s.learnerRepo.Create(ctx, l); err != nil {
			// A concurrent onboarding may have won the race.
			if shared.IsAlreadyExists(err) {
				if existing, err = s.learnerRepo.GetByID(ctx, input.LearnerID); err == nil {
					result.Learner = existing
					break
				}
			}
			return nil, &OnboardingError{Step: StepCreateProfile, LearnerID: input.LearnerID, Cause: err}
		}
		result.Learner = l
		result.Created = true
	default:
		return nil, &OnboardingError{Step: StepCheckExistence, LearnerID: input.LearnerID, Cause: err}
	}

	// Step 3: configure the parental gate.
	if input.ParentPIN != "" && !result.Learner.HasParentPIN() {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.ParentPIN), s.bcryptCost)
		if err != nil {
			return nil, &OnboardingError{Step: StepSetParentPIN, LearnerID: input.LearnerID, Cause: err}
		}
		result.Learner.SetParentPINHash(hash)
		if err := s.learnerRepo.Update(ctx, result.Learner); err != nil {
			return nil, &OnboardingError{Step: StepSetParentPIN, LearnerID: input.LearnerID, Cause: err}
		}
		result.PINConfigured = true
	}

	// Step 4: load (or initialize) the progress tracker.
	tracker, err := s.progressRepo.Load(ctx, input.LearnerID)
	if err != nil {
		return nil, &OnboardingError{Step: StepInitializeProgress, LearnerID: input.LearnerID, Cause: err}
	}
	if result.Created {
		if err := s.seedStarterProgress(ctx, tracker); err != nil {
			return nil, &OnboardingError{Step: StepInitializeProgress, LearnerID: input.LearnerID, Cause: err}
		}
	}
	result.Tracker = tracker

	// Step 5: welcome toast, only on first creation.
	if result.Created && s.toasts != nil {
		toast := notification.Toast{
			LearnerID: input.LearnerID,
			Kind:      notification.KindXP,
			Title:     "Bem-vindo ao AI Kids Hub!",
			Subtitle:  "Sua jornada neural começa agora",
			Color:     notification.ColorCyan,
		}
		// A rejected welcome toast never fails onboarding.
		_, _ = s.toasts.Push(toast)
	}

	result.OnboardedAt = time.Now().UTC()
	return result, nil
}

// starterProgress is the demo progress a fresh profile starts with:
// the first two modules of season 1 done and the third underway, so
// the shelf does not look empty on first launch.
var starterProgress = []struct {
	itemID shared.ItemID
	value  int
}{
	{shared.NewItemID(1, 1), 100},
	{shared.NewItemID(1, 2), 100},
	{shared.NewItemID(1, 3), 45},
}

// seedStarterProgress writes the starter records directly to the
// tracker. It runs only for a freshly created profile, and bypasses
// the achievement flow so the demo modules award no XP or badges.
func (s *OnboardingSaga) seedStarterProgress(ctx context.Context, tracker *progress.Tracker) error {
	for _, seed := range starterProgress {
		if _, err := tracker.Update(seed.itemID, seed.value); err != nil {
			return err
		}
	}
	return s.progressRepo.Save(ctx, tracker)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingError reports which step of onboarding failed.
type OnboardingError struct {
	Step      OnboardingStep
	LearnerID string
	Cause     error
}

// Error implements the error interface.
func (e *OnboardingError) Error() string {
	return fmt.Sprintf("onboarding failed at step '%s' for learner %s: %v", e.Step, e.LearnerID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *OnboardingError) Unwrap() error {
	return e.Cause
}

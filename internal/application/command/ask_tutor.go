package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASK TUTOR COMMAND
// Sends a question to the Neo tutor. The tutor never hard-fails towards
// the child: when the model is unreachable the service hands back a
// canned fallback line and the command reports Degraded instead of an
// error. The first interaction ever unlocks the talker badge.
// ══════════════════════════════════════════════════════════════════════════════

// TutorService answers questions in the Neo persona for a given audience.
// Implementations degrade to a fallback answer instead of surfacing
// transport errors; degraded reports when that happened.
type TutorService interface {
	Ask(ctx context.Context, question string, audience shared.Audience) (answer string, degraded bool)
}

// TutorTranscript archives tutor exchanges for the parent dashboard.
type TutorTranscript interface {
	SaveExchange(ctx context.Context, learnerID string, audience shared.Audience, question, answer string) error
}

// AskTutorCommand contains the data for one tutor question.
type AskTutorCommand struct {
	// LearnerID is the profile asking.
	LearnerID string

	// Question is the free-text question.
	Question string

	// Audience selects the persona, "child" (default) or "adult".
	Audience string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AskTutorCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("ask_tutor: learner_id is required")
	}
	if strings.TrimSpace(c.Question) == "" {
		return shared.ErrEmptyValue
	}
	return nil
}

// AskTutorResult contains the tutor's answer.
type AskTutorResult struct {
	// Answer is the tutor's reply, always non-empty.
	Answer string

	// Audience is the persona that answered.
	Audience string

	// Degraded is true when the answer is the connection fallback.
	Degraded bool

	// FirstInteraction is true for the learner's first tutor message ever.
	FirstInteraction bool

	// Achievements holds the talker badge reward on the first interaction.
	Achievements *saga.AchievementResult

	// AnsweredAt is when the exchange completed.
	AnsweredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AskTutorHandler handles the AskTutorCommand.
type AskTutorHandler struct {
	learnerRepo  learner.Repository
	tutor        TutorService
	transcript   TutorTranscript
	achievements *saga.AchievementFlow
	publisher    shared.EventPublisher
}

// NewAskTutorHandler creates a new AskTutorHandler.
// The transcript and publisher may be nil.
func NewAskTutorHandler(
	learnerRepo learner.Repository,
	tutor TutorService,
	transcript TutorTranscript,
	achievements *saga.AchievementFlow,
	publisher shared.EventPublisher,
) *AskTutorHandler {
	return &AskTutorHandler{
		learnerRepo:  learnerRepo,
		tutor:        tutor,
		transcript:   transcript,
		achievements: achievements,
		publisher:    publisher,
	}
}

// Handle executes the ask tutor command.
func (h *AskTutorHandler) Handle(ctx context.Context, cmd AskTutorCommand) (*AskTutorResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("ask_tutor: validation failed: %w", err)
	}

	audience := shared.ParseAudience(cmd.Audience)

	l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("ask_tutor: failed to load learner: %w", err)
	}

	answer, degraded := h.tutor.Ask(ctx, cmd.Question, audience)

	result := &AskTutorResult{
		Answer:     answer,
		Audience:   audience.String(),
		Degraded:   degraded,
		AnsweredAt: time.Now().UTC(),
	}

	// A degraded answer still counts as an interaction; the child asked.
	result.FirstInteraction = l.RecordTutorInteraction()

	awards, err := h.achievements.OnTutorInteraction(ctx, l, cmd.CorrelationID)
	if err != nil {
		return nil, fmt.Errorf("ask_tutor: achievement flow: %w", err)
	}
	if awards.HasAwards() {
		result.Achievements = awards
	} else {
		// The flow only persists when it grants something; the bumped
		// interaction counter still has to land.
		if err := h.learnerRepo.Update(ctx, l); err != nil {
			return nil, fmt.Errorf("ask_tutor: failed to update learner: %w", err)
		}
	}

	if h.transcript != nil {
		// Archiving is best effort; the answer is already on screen.
		_ = h.transcript.SaveExchange(ctx, cmd.LearnerID, audience, cmd.Question, answer)
	}

	if h.publisher != nil {
		event := shared.NewTutorInteractedEvent(cmd.LearnerID, audience.String(), result.FirstInteraction)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.publisher.Publish(event)
	}

	return result, nil
}

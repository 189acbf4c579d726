// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA
// Runs after a completion transition or a tutor interaction.
// Flow: Check Rules → Apply XP → Unlock Badges → Push Toasts → Persist →
//
//	Publish Events
//
// Toast order is part of the contract: the XP toast first, the level-up
// toast right after the gain that crossed the boundary, badge toasts last.
// The flow runs synchronously inside the triggering command so the client
// sees every toast of one update in a single response.
// ══════════════════════════════════════════════════════════════════════════════

// ModuleCompletedInput contains the data for a completion-triggered run.
type ModuleCompletedInput struct {
	// Learner is the profile the awards apply to. The flow mutates it.
	Learner *learner.Learner

	// ItemID is the item that just reached full progress.
	ItemID shared.ItemID

	// Progress is the read-side view used by the achievement rules.
	// It must already include the completing item.
	Progress learner.ProgressView

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the input.
func (i ModuleCompletedInput) Validate() error {
	if i.Learner == nil {
		return errors.New("achievement_flow: learner is required")
	}
	if !i.ItemID.IsValid() {
		return shared.ErrInvalidItemID
	}
	if i.Progress == nil {
		return errors.New("achievement_flow: progress view is required")
	}
	return nil
}

// AchievementResult describes everything one flow run granted.
type AchievementResult struct {
	// LearnerID is the profile the awards applied to.
	LearnerID string

	// XPAwarded is the total XP granted across all awards.
	XPAwarded int

	// NewTotal is the XP total after the run.
	NewTotal int

	// LeveledUp reports whether a level boundary was crossed.
	LeveledUp bool

	// NewLevel is the level after the run.
	NewLevel int

	// Badges holds the badges unlocked by this run, in unlock order.
	Badges []learner.Badge

	// Toasts holds the notification cards pushed, in display order.
	Toasts []notification.Toast

	// ProcessedAt is when the flow completed.
	ProcessedAt time.Time
}

// HasAwards reports whether the run granted anything.
func (r *AchievementResult) HasAwards() bool {
	return r.XPAwarded > 0 || len(r.Badges) > 0
}

// Step identifies a stage of the flow, used in errors and logs.
type Step string

const (
	StepCheckRules    Step = "check_rules"
	StepApplyAwards   Step = "apply_awards"
	StepPersist       Step = "persist_learner"
	StepPublishEvents Step = "publish_events"
)

// ══════════════════════════════════════════════════════════════════════════════
// FLOW IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlow orchestrates reward evaluation, toast emission and
// profile persistence for a single learner action.
type AchievementFlow struct {
	learnerRepo learner.Repository
	checker     *learner.Checker
	toasts      *notification.Queue
	publisher   shared.EventPublisher
}

// NewAchievementFlow creates the flow with all dependencies.
// The publisher may be nil; events are then skipped.
func NewAchievementFlow(
	learnerRepo learner.Repository,
	toasts *notification.Queue,
	publisher shared.EventPublisher,
) *AchievementFlow {
	return &AchievementFlow{
		learnerRepo: learnerRepo,
		checker:     learner.NewChecker(),
		toasts:      toasts,
		publisher:   publisher,
	}
}

// OnModuleCompleted applies every award a completion transition earns.
func (f *AchievementFlow) OnModuleCompleted(ctx context.Context, input ModuleCompletedInput) (*AchievementResult, error) {
	if err := input.Validate(); err != nil {
		return nil, &FlowError{Step: StepCheckRules, LearnerID: learnerID(input.Learner), Cause: err}
	}

	awards := f.checker.OnModuleCompleted(input.Learner, input.ItemID.Season(), input.Progress)
	return f.apply(ctx, input.Learner, awards, input.ItemID.String(), input.CorrelationID)
}

// OnTutorInteraction applies the talker badge on the first tutor message.
// Runs with no awards are valid and return an empty result.
func (f *AchievementFlow) OnTutorInteraction(ctx context.Context, l *learner.Learner, correlationID string) (*AchievementResult, error) {
	if l == nil {
		return nil, &FlowError{Step: StepCheckRules, Cause: errors.New("achievement_flow: learner is required")}
	}

	award := f.checker.OnTutorInteraction(l)
	if award == nil {
		return &AchievementResult{LearnerID: l.ID, ProcessedAt: time.Now().UTC()}, nil
	}
	return f.apply(ctx, l, []learner.Award{*award}, "", correlationID)
}

// apply walks the award list in emission order, mutating the learner and
// pushing toasts as it goes, then persists and publishes once at the end.
func (f *AchievementFlow) apply(
	ctx context.Context,
	l *learner.Learner,
	awards []learner.Award,
	itemID string,
	correlationID string,
) (*AchievementResult, error) {
	result := &AchievementResult{
		LearnerID: l.ID,
		NewTotal:  l.XP.Int(),
		NewLevel:  l.Level().Int(),
	}
	var events []shared.Event

	for _, award := range awards {
		switch {
		case award.XP > 0:
			gain, err := l.AddXP(award.XP)
			if err != nil {
				return nil, &FlowError{Step: StepApplyAwards, LearnerID: l.ID, Cause: err}
			}

			result.XPAwarded += gain.Amount
			result.NewTotal = gain.NewTotal
			result.NewLevel = gain.NewLevel.Int()

			result.Toasts = append(result.Toasts, f.push(notification.NewXPToast(l.ID, gain.Amount))...)
			events = append(events, withCorrelation(
				shared.NewXPGainedEvent(l.ID, gain.Amount, gain.NewTotal, award.Source, itemID), correlationID))

			if award.Source == "season_mastery" {
				events = append(events, withCorrelation(
					shared.NewSeasonMasteredEvent(l.ID, learner.Season1, gain.Amount), correlationID))
			}

			// The level-up toast follows the exact gain that crossed the
			// boundary, before any later badge toast.
			if gain.LeveledUp() {
				result.LeveledUp = true
				result.Toasts = append(result.Toasts, f.push(notification.NewLevelUpToast(l.ID, gain.NewLevel.Int()))...)
				events = append(events, withCorrelation(
					shared.NewLevelUpEvent(l.ID, gain.OldLevel.Int(), gain.NewLevel.Int(), gain.NewTotal), correlationID))
			}

		case award.BadgeID != "":
			badge, err := l.UnlockBadge(award.BadgeID)
			if err != nil {
				// The checker gates on ownership, so an already-owned badge
				// here means concurrent runs raced. Skip, do not fail.
				if errors.Is(err, shared.ErrBadgeAlreadyOwned) {
					continue
				}
				return nil, &FlowError{Step: StepApplyAwards, LearnerID: l.ID, Cause: err}
			}

			result.Badges = append(result.Badges, badge)
			result.Toasts = append(result.Toasts, f.push(notification.NewBadgeToast(l.ID, badge))...)
			events = append(events, withCorrelation(
				shared.NewBadgeUnlockedEvent(l.ID, badge.ID, badge.Title).WithItem(itemID), correlationID))
		}
	}

	if err := f.learnerRepo.Update(ctx, l); err != nil {
		return nil, &FlowError{Step: StepPersist, LearnerID: l.ID, Cause: fmt.Errorf("persist learner: %w", err)}
	}

	if f.publisher != nil {
		for _, event := range events {
			// Events are a side channel; a failed publish never rolls back
			// awards that are already persisted.
			_ = f.publisher.Publish(event)
		}
	}

	result.ProcessedAt = time.Now().UTC()
	return result, nil
}

// push adds a toast to the queue and returns it as a one-element slice,
// empty when the push was rejected.
func (f *AchievementFlow) push(toast notification.Toast) []notification.Toast {
	if f.toasts == nil {
		return nil
	}
	stored, err := f.toasts.Push(toast)
	if err != nil {
		return nil
	}
	if f.publisher != nil {
		_ = f.publisher.Publish(shared.NewNotificationPushedEvent(
			stored.ID, stored.LearnerID, string(stored.Kind), stored.Title))
	}
	return []notification.Toast{stored}
}

func learnerID(l *learner.Learner) string {
	if l == nil {
		return ""
	}
	return l.ID
}

// withCorrelation threads the correlation ID into an event when set.
func withCorrelation(event shared.Event, correlationID string) shared.Event {
	if correlationID == "" {
		return event
	}
	switch e := event.(type) {
	case shared.XPGainedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	case shared.LevelUpEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	case shared.BadgeUnlockedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	case shared.SeasonMasteredEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(correlationID)
		return e
	default:
		return event
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// FlowError reports which step of an achievement run failed.
type FlowError struct {
	Step      Step
	LearnerID string
	Cause     error
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	return fmt.Sprintf("achievement flow failed at step '%s' for learner %s: %v", e.Step, e.LearnerID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

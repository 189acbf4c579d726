package projections

import (
	"context"
	"log/slog"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CARD PROJECTOR
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCardProjector keeps the ProfileCardView current from domain events.
// Register its Handle for the XP gained, badge unlocked, module completed
// and tutor interacted event types.
type ProfileCardProjector struct {
	view         *ProfileCardView
	learnerRepo  learner.Repository
	progressRepo progress.Repository
	logger       *slog.Logger
}

// NewProfileCardProjector creates a new projector.
func NewProfileCardProjector(
	view *ProfileCardView,
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	logger *slog.Logger,
) *ProfileCardProjector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileCardProjector{
		view:         view,
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		logger:       logger.With("projector", "profile_card"),
	}
}

// Handle implements shared.EventHandler for all projected event types.
func (p *ProfileCardProjector) Handle(event shared.Event) error {
	switch e := event.(type) {
	case shared.XPGainedEvent:
		p.ensureCard(e.LearnerID)
		p.view.ApplyXPGain(e.LearnerID, e.NewTotal)

	case shared.BadgeUnlockedEvent:
		p.ensureCard(e.LearnerID)
		p.view.ApplyBadgeUnlock(e.LearnerID, e.BadgeID)

	case shared.ModuleCompletedEvent:
		p.ensureCard(e.LearnerID)
		p.view.ApplyModuleCompleted(e.LearnerID)

	case shared.TutorInteractedEvent:
		p.ensureCard(e.LearnerID)
		p.view.ApplyTutorInteraction(e.LearnerID)

	default:
		p.logger.Warn("received unprojected event", "event_type", event.EventType())
	}
	return nil
}

// ensureCard lazily builds the card from the repositories on first sight
// of a learner. Later events only patch the cached card.
func (p *ProfileCardProjector) ensureCard(learnerID string) {
	if p.view.Exists(learnerID) {
		return
	}

	ctx := context.Background()
	l, err := p.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		p.logger.Warn("failed to load learner for projection",
			"learner_id", learnerID,
			"error", err,
		)
		return
	}

	completed := 0
	if tracker, err := p.progressRepo.Load(ctx, learnerID); err == nil {
		completed = tracker.CompletedCount()
	}

	card, err := p.view.BuildCard(l, completed)
	if err != nil {
		return
	}
	if err := p.view.UpsertCard(card); err != nil {
		p.logger.Warn("failed to upsert profile card",
			"learner_id", learnerID,
			"error", err,
		)
	}
}

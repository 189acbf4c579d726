// Package eventhandler contains domain event handlers wired into the
// dispatcher. Handlers run after the triggering command has already
// committed; they do write-behind work and must tolerate replays.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON XP GAINED HANDLER
// Write-behind for XP changes:
// 1. Append the change to the durable XP history (audit for the dashboard)
// 2. Invalidate the cached profile so the next read sees the new total
// ═══════════════════════════════════════════════════════════════════════════

// XPHistorySink records XP changes for the parent dashboard audit trail.
type XPHistorySink interface {
	RecordXPChange(ctx context.Context, learnerID string, oldXP, newXP int, reason, itemID string) error
}

// OnXPGainedHandler handles learner.xp_gained events.
type OnXPGainedHandler struct {
	history      XPHistorySink
	learnerCache learner.Cache
	logger       *slog.Logger
}

// NewOnXPGainedHandler creates the handler. History and cache may be nil.
func NewOnXPGainedHandler(history XPHistorySink, learnerCache learner.Cache, logger *slog.Logger) *OnXPGainedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnXPGainedHandler{
		history:      history,
		learnerCache: learnerCache,
		logger:       logger.With("handler", "on_xp_gained"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnXPGainedHandler) Handle(event shared.Event) error {
	xpEvent, ok := event.(shared.XPGainedEvent)
	if !ok {
		h.logger.Warn("received non-XPGainedEvent", "event_type", event.EventType())
		return nil
	}

	ctx := context.Background()

	if h.history != nil {
		oldXP := xpEvent.NewTotal - xpEvent.Amount
		if err := h.history.RecordXPChange(ctx, xpEvent.LearnerID, oldXP, xpEvent.NewTotal, xpEvent.Source, xpEvent.ItemID); err != nil {
			// History is an audit trail, not the source of truth.
			h.logger.Error("failed to record xp history",
				"learner_id", xpEvent.LearnerID,
				"amount", xpEvent.Amount,
				"error", err,
			)
		}
	}

	if h.learnerCache != nil {
		if err := h.learnerCache.Invalidate(ctx, xpEvent.LearnerID); err != nil {
			h.logger.Warn("failed to invalidate learner cache",
				"learner_id", xpEvent.LearnerID,
				"error", err,
			)
		}
	}

	h.logger.Debug("xp gain processed",
		"learner_id", xpEvent.LearnerID,
		"amount", xpEvent.Amount,
		"new_total", xpEvent.NewTotal,
		"source", xpEvent.Source,
	)
	return nil
}

// EventType returns the event type this handler subscribes to.
func (h *OnXPGainedHandler) EventType() shared.EventType {
	return shared.EventXPGained
}

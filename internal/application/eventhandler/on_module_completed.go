package eventhandler

import (
	"context"
	"log/slog"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MODULE COMPLETED HANDLER
// Refreshes the cached progress snapshot after a completion so the next
// browse shows the 100% ring without a repository round trip. The command
// already invalidated the snapshot; this handler rebuilds it eagerly.
// ═══════════════════════════════════════════════════════════════════════════

// OnModuleCompletedHandler handles module.completed events.
type OnModuleCompletedHandler struct {
	progressRepo  progress.Repository
	progressCache progress.Cache
	logger        *slog.Logger
}

// NewOnModuleCompletedHandler creates the handler. The cache may be nil,
// which turns the handler into a log-only observer.
func NewOnModuleCompletedHandler(progressRepo progress.Repository, progressCache progress.Cache, logger *slog.Logger) *OnModuleCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnModuleCompletedHandler{
		progressRepo:  progressRepo,
		progressCache: progressCache,
		logger:        logger.With("handler", "on_module_completed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnModuleCompletedHandler) Handle(event shared.Event) error {
	completed, ok := event.(shared.ModuleCompletedEvent)
	if !ok {
		h.logger.Warn("received non-ModuleCompletedEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("module completed",
		"learner_id", completed.LearnerID,
		"item_id", completed.ItemID,
		"season", completed.Season,
	)

	if h.progressCache == nil {
		return nil
	}

	ctx := context.Background()
	tracker, err := h.progressRepo.Load(ctx, completed.LearnerID)
	if err != nil {
		h.logger.Error("failed to load progress for cache refresh",
			"learner_id", completed.LearnerID,
			"error", err,
		)
		return nil
	}

	if err := h.progressCache.SetSnapshot(ctx, completed.LearnerID, tracker.Snapshot(), 0); err != nil {
		h.logger.Warn("failed to refresh progress snapshot",
			"learner_id", completed.LearnerID,
			"error", err,
		)
	}
	return nil
}

// EventType returns the event type this handler subscribes to.
func (h *OnModuleCompletedHandler) EventType() shared.EventType {
	return shared.EventModuleCompleted
}

package eventhandler

import (
	"log/slog"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON TRAILER FINISHED HANDLER
// Surfaces trailer completion to the child as a toast. Failures stay
// quiet towards the child; the player screen shows its own retry state
// and the failure is already logged by the task manager.
// ═══════════════════════════════════════════════════════════════════════════

// OnTrailerFinishedHandler handles trailer.succeeded and trailer.failed.
type OnTrailerFinishedHandler struct {
	toasts    *notification.Queue
	learnerID func(taskID string) string
	logger    *slog.Logger
}

// NewOnTrailerFinishedHandler creates the handler. learnerID resolves the
// toast recipient from a task ID; the task manager provides it.
func NewOnTrailerFinishedHandler(toasts *notification.Queue, learnerID func(taskID string) string, logger *slog.Logger) *OnTrailerFinishedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnTrailerFinishedHandler{
		toasts:    toasts,
		learnerID: learnerID,
		logger:    logger.With("handler", "on_trailer_finished"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnTrailerFinishedHandler) Handle(event shared.Event) error {
	finished, ok := event.(shared.TrailerFinishedEvent)
	if !ok {
		h.logger.Warn("received non-TrailerFinishedEvent", "event_type", event.EventType())
		return nil
	}

	if event.EventType() != shared.EventTrailerSucceeded {
		h.logger.Debug("trailer did not succeed, no toast",
			"task_id", finished.TaskID,
			"reason", finished.Reason,
		)
		return nil
	}

	if h.toasts == nil || h.learnerID == nil {
		return nil
	}
	recipient := h.learnerID(finished.TaskID)
	if recipient == "" {
		return nil
	}

	toast := notification.Toast{
		LearnerID: recipient,
		Kind:      notification.KindXP,
		Title:     "Trailer Pronto!",
		Subtitle:  "Sua síntese de vídeo terminou",
		Color:     notification.ColorMagenta,
	}
	if _, err := h.toasts.Push(toast); err != nil {
		h.logger.Warn("failed to push trailer toast",
			"task_id", finished.TaskID,
			"error", err,
		)
	}
	return nil
}

// EventType returns the primary event type this handler subscribes to.
// The dispatcher additionally registers it for trailer.failed.
func (h *OnTrailerFinishedHandler) EventType() shared.EventType {
	return shared.EventTrailerSucceeded
}

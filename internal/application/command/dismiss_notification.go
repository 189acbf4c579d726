package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISMISS NOTIFICATION COMMAND
// Removes a toast before its auto-expiry. Dismissing a toast that already
// expired comes back as shared.ErrNotificationNotFound, which clients
// treat as success: the card is gone either way.
// ══════════════════════════════════════════════════════════════════════════════

// DismissNotificationCommand identifies the toast to remove.
type DismissNotificationCommand struct {
	// LearnerID is the toast owner.
	LearnerID string

	// NotificationID is the toast to dismiss.
	NotificationID string
}

// Validate validates the command.
func (c DismissNotificationCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("dismiss_notification: learner_id is required")
	}
	if c.NotificationID == "" {
		return errors.New("dismiss_notification: notification_id is required")
	}
	return nil
}

// DismissNotificationHandler handles the DismissNotificationCommand.
type DismissNotificationHandler struct {
	toasts    *notification.Queue
	publisher shared.EventPublisher
}

// NewDismissNotificationHandler creates a new DismissNotificationHandler.
// The publisher may be nil.
func NewDismissNotificationHandler(toasts *notification.Queue, publisher shared.EventPublisher) *DismissNotificationHandler {
	return &DismissNotificationHandler{toasts: toasts, publisher: publisher}
}

// Handle executes the dismiss notification command.
func (h *DismissNotificationHandler) Handle(ctx context.Context, cmd DismissNotificationCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("dismiss_notification: validation failed: %w", err)
	}

	if err := h.toasts.Dismiss(cmd.NotificationID); err != nil {
		return err
	}

	if h.publisher != nil {
		event := shared.NewBaseEvent(shared.EventNotificationDismissed, cmd.NotificationID)
		_ = h.publisher.Publish(dismissedEvent{BaseEvent: event, LearnerID: cmd.LearnerID, NotificationID: cmd.NotificationID})
	}
	return nil
}

// dismissedEvent is the local event shape for a manual dismissal.
type dismissedEvent struct {
	shared.BaseEvent
	LearnerID      string
	NotificationID string
}

// Payload implements shared.Event.
func (e dismissedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":      e.LearnerID,
		"notification_id": e.NotificationID,
	}
}

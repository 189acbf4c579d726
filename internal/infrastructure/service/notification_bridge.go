package service

import (
	"log/slog"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// NotificationBridge turns toast queue expiries into domain events so the
// event log shows the full toast lifecycle, not just the push.
type NotificationBridge struct {
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewNotificationBridge creates a new NotificationBridge.
func NewNotificationBridge(publisher shared.EventPublisher, logger *slog.Logger) *NotificationBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationBridge{publisher: publisher, logger: logger}
}

// OnExpire is wired into the queue via notification.WithOnExpire.
func (b *NotificationBridge) OnExpire(toast notification.Toast) {
	if b.publisher == nil {
		return
	}
	event := expiredEvent{
		BaseEvent:      shared.NewBaseEvent(shared.EventNotificationExpired, toast.ID),
		NotificationID: toast.ID,
		LearnerID:      toast.LearnerID,
		Kind:           string(toast.Kind),
	}
	if err := b.publisher.Publish(event); err != nil {
		b.logger.Warn("failed to publish notification expiry",
			"notification_id", toast.ID,
			"error", err,
		)
	}
}

type expiredEvent struct {
	shared.BaseEvent
	NotificationID string `json:"notification_id"`
	LearnerID      string `json:"learner_id"`
	Kind           string `json:"kind"`
}

// Payload implements shared.Event.
func (e expiredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"notification_id": e.NotificationID,
		"learner_id":      e.LearnerID,
		"kind":            e.Kind,
	}
}

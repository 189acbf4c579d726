package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NOTIFICATIONS QUERY
// Returns the live toast stack of a learner in push order. Expired and
// dismissed toasts are already gone from the queue by the time this runs.
// ══════════════════════════════════════════════════════════════════════════════

// GetNotificationsQuery identifies the learner.
type GetNotificationsQuery struct {
	// LearnerID is the toast owner.
	LearnerID string
}

// Validate validates the query parameters.
func (q *GetNotificationsQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("get_notifications: learner_id is required")
	}
	return nil
}

// ToastDTO is one live toast card.
type ToastDTO struct {
	ID       string `json:"id"`
	Kind     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color"`

	// ExpiresInMS is the remaining lifetime in milliseconds, clamped at zero.
	ExpiresInMS int64 `json:"expires_in_ms"`

	CreatedAt time.Time `json:"created_at"`
}

// GetNotificationsResult contains the live toasts.
type GetNotificationsResult struct {
	Toasts []ToastDTO `json:"toasts"`
}

// GetNotificationsHandler handles the GetNotificationsQuery.
type GetNotificationsHandler struct {
	toasts *notification.Queue
}

// NewGetNotificationsHandler creates a new GetNotificationsHandler.
func NewGetNotificationsHandler(toasts *notification.Queue) *GetNotificationsHandler {
	return &GetNotificationsHandler{toasts: toasts}
}

// Handle executes the get notifications query.
func (h *GetNotificationsHandler) Handle(ctx context.Context, q GetNotificationsQuery) (*GetNotificationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_notifications: %w", err)
	}

	now := time.Now()
	live := h.toasts.List(q.LearnerID)
	result := &GetNotificationsResult{Toasts: make([]ToastDTO, 0, len(live))}
	for _, t := range live {
		remaining := t.ExpiresAt.Sub(now).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		result.Toasts = append(result.Toasts, ToastDTO{
			ID:          t.ID,
			Kind:        string(t.Kind),
			Title:       t.Title,
			Subtitle:    t.Subtitle,
			Icon:        t.Icon,
			Color:       string(t.Color),
			ExpiresInMS: remaining,
			CreatedAt:   t.CreatedAt,
		})
	}
	return result, nil
}

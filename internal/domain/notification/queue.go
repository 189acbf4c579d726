package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// DefaultTTL is how long a toast stays on screen before auto-dismissing.
const DefaultTTL = 5 * time.Second

// ══════════════════════════════════════════════════════════════════════════════
// TOAST QUEUE
// In-memory queue with per-toast expiry timers. Toasts come back in push
// order; duplicates are allowed because a learner can earn the same XP
// amount twice in a row and both cards must show.
// ══════════════════════════════════════════════════════════════════════════════

// ExpireFunc is called when a toast expires on its own (not on dismiss).
type ExpireFunc func(toast Toast)

// Queue holds the live toasts of all learners.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	toasts []queued
	closed bool

	onExpire ExpireFunc
}

type queued struct {
	toast Toast
	timer *time.Timer
}

// Option configures a Queue.
type Option func(*Queue)

// WithTTL overrides the toast lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		if ttl > 0 {
			q.ttl = ttl
		}
	}
}

// WithOnExpire registers a callback for auto-expired toasts.
func WithOnExpire(fn ExpireFunc) Option {
	return func(q *Queue) {
		q.onExpire = fn
	}
}

// NewQueue creates a toast queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{ttl: DefaultTTL}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push validates the toast, assigns its ID and expiry, and schedules the
// auto-dismiss timer. Returns the stored toast.
func (q *Queue) Push(toast Toast) (Toast, error) {
	if err := toast.Validate(); err != nil {
		return Toast{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Toast{}, shared.WrapError("notification", "Push", shared.ErrInvalidState, "queue is closed", nil)
	}

	now := time.Now()
	toast.ID = uuid.NewString()
	toast.CreatedAt = now
	toast.ExpiresAt = now.Add(q.ttl)

	id := toast.ID
	entry := queued{
		toast: toast,
		timer: time.AfterFunc(q.ttl, func() { q.expire(id) }),
	}
	q.toasts = append(q.toasts, entry)
	return toast, nil
}

// Dismiss removes a toast before it expires and cancels its timer.
func (q *Queue) Dismiss(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, entry := range q.toasts {
		if entry.toast.ID == id {
			entry.timer.Stop()
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotificationNotFound
}

// List returns the live toasts of a learner in push order.
func (q *Queue) List(learnerID string) []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Toast, 0, len(q.toasts))
	for _, entry := range q.toasts {
		if entry.toast.LearnerID == learnerID {
			out = append(out, entry.toast)
		}
	}
	return out
}

// Len returns the total number of live toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

// Close cancels all timers and rejects further pushes.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, entry := range q.toasts {
		entry.timer.Stop()
	}
	q.toasts = nil
}

// expire is the timer callback for a single toast.
func (q *Queue) expire(id string) {
	q.mu.Lock()
	var expired *Toast
	for i, entry := range q.toasts {
		if entry.toast.ID == id {
			t := entry.toast
			expired = &t
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			break
		}
	}
	onExpire := q.onExpire
	q.mu.Unlock()

	if expired != nil && onExpire != nil {
		onExpire(*expired)
	}
}

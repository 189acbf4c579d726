package progress

import (
	"context"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract for progress data.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for progress trackers.
type Repository interface {
	// Load returns the tracker of a learner. A learner with no stored
	// progress gets an empty tracker, not an error.
	Load(ctx context.Context, learnerID string) (*Tracker, error)

	// Save persists the full tracker state.
	Save(ctx context.Context, tracker *Tracker) error

	// SaveRecord persists a single record, for incremental write-behind.
	SaveRecord(ctx context.Context, learnerID string, record Record) error

	// Delete removes all progress of a learner.
	Delete(ctx context.Context, learnerID string) error
}

// Cache defines fast-path caching of progress snapshots.
type Cache interface {
	// GetSnapshot returns the cached progress map of a learner.
	// Returns shared.ErrNotFound on a cache miss.
	GetSnapshot(ctx context.Context, learnerID string) (map[shared.ItemID]shared.ProgressValue, error)

	// SetSnapshot stores the progress map with a TTL.
	SetSnapshot(ctx context.Context, learnerID string, snapshot map[shared.ItemID]shared.ProgressValue, ttl time.Duration) error

	// Invalidate drops the cached snapshot of a learner.
	Invalidate(ctx context.Context, learnerID string) error
}

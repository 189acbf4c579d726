package learner

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract for learner profiles.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for learner profiles.
type Repository interface {
	// Create stores a new learner.
	// Returns shared.ErrAlreadyExists if the ID is taken.
	Create(ctx context.Context, l *Learner) error

	// GetByID returns a learner by ID.
	// Returns shared.ErrLearnerNotFound if missing.
	GetByID(ctx context.Context, id string) (*Learner, error)

	// Update persists profile changes.
	// Returns shared.ErrLearnerNotFound if missing.
	Update(ctx context.Context, l *Learner) error

	// Delete removes a learner profile.
	Delete(ctx context.Context, id string) error
}

// Cache defines fast-path caching of learner profiles.
type Cache interface {
	// Get returns a cached learner, shared.ErrNotFound on a miss.
	Get(ctx context.Context, id string) (*Learner, error)

	// Set stores a learner with a TTL.
	Set(ctx context.Context, l *Learner, ttl time.Duration) error

	// Invalidate drops a cached learner.
	Invalidate(ctx context.Context, id string) error
}

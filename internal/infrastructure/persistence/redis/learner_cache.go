package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// LearnerCache implements learner.Cache using the generic Redis Cache.
type LearnerCache struct {
	cache *Cache
}

// NewLearnerCache creates a new LearnerCache.
func NewLearnerCache(cache *Cache) *LearnerCache {
	return &LearnerCache{
		cache: cache,
	}
}

// Get returns a cached learner profile.
// Returns shared.ErrNotFound on a cache miss.
func (c *LearnerCache) Get(ctx context.Context, id string) (*learner.Learner, error) {
	var l learner.Learner
	if err := c.cache.Get(ctx, LearnerKey(id), &l); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Set stores a learner profile with a TTL.
func (c *LearnerCache) Set(ctx context.Context, l *learner.Learner, ttl time.Duration) error {
	if l == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLLearnerCache
	}
	return c.cache.Set(ctx, LearnerKey(l.ID), l, ttl)
}

// Invalidate drops a cached learner profile.
func (c *LearnerCache) Invalidate(ctx context.Context, id string) error {
	return c.cache.Delete(ctx, LearnerKey(id))
}

// InvalidateAll clears every cached learner profile.
func (c *LearnerCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixLearner+"*")
}

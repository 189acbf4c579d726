package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ProgressCache implements progress.Cache using a Redis hash per learner.
// Each hash field is a module ID ("season-module") and each value the
// progress percentage, so single-module updates stay cheap.
type ProgressCache struct {
	cache *Cache
}

// NewProgressCache creates a new ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{
		cache: cache,
	}
}

// GetSnapshot returns the cached progress map of a learner.
// Returns shared.ErrNotFound on a cache miss.
func (c *ProgressCache) GetSnapshot(ctx context.Context, learnerID string) (map[shared.ItemID]shared.ProgressValue, error) {
	fields, err := c.cache.HGetAll(ctx, ProgressKey(learnerID))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		// HGETALL returns an empty map for missing keys.
		return nil, shared.ErrNotFound
	}

	snapshot := make(map[shared.ItemID]shared.ProgressValue, len(fields))
	for field, raw := range fields {
		id, err := shared.ParseItemID(field)
		if err != nil {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		snapshot[id] = shared.ProgressValue(value).Clamp()
	}

	return snapshot, nil
}

// SetSnapshot stores the full progress map of a learner with a TTL.
func (c *ProgressCache) SetSnapshot(ctx context.Context, learnerID string, snapshot map[shared.ItemID]shared.ProgressValue, ttl time.Duration) error {
	if len(snapshot) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLProgressCache
	}

	key := ProgressKey(learnerID)
	pipe := c.cache.Client().Pipeline()
	pipe.Del(ctx, key)
	for id, value := range snapshot {
		pipe.HSet(ctx, key, id.String(), value.Int())
	}
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// SetValue updates a single module's progress in an existing snapshot.
// It is a no-op when the snapshot is not cached, to avoid building
// partial snapshots that would read back as complete ones.
func (c *ProgressCache) SetValue(ctx context.Context, learnerID string, id shared.ItemID, value shared.ProgressValue) error {
	key := ProgressKey(learnerID)
	exists, err := c.cache.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return c.cache.Client().HSet(ctx, key, id.String(), value.Int()).Err()
}

// Invalidate drops the cached snapshot of a learner.
func (c *ProgressCache) Invalidate(ctx context.Context, learnerID string) error {
	return c.cache.Delete(ctx, ProgressKey(learnerID))
}

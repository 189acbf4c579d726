package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM CATALOG CACHE JOB
// ══════════════════════════════════════════════════════════════════════════════

// WarmCatalogCacheJob precomputes the unfiltered catalog shelves into Redis.
// The catalog itself is deterministic and cheap, but the serialized default
// view is what every fresh browse request asks for first, so keeping it warm
// shaves the common path and survives hub restarts.
type WarmCatalogCacheJob struct {
	catalog *catalog.Catalog
	cache   *redis.Cache
	logger  *slog.Logger
	config  WarmCatalogCacheConfig

	lastRunStats atomic.Value // *WarmCatalogCacheStats
}

// WarmCatalogCacheConfig contains configuration for the warm job.
type WarmCatalogCacheConfig struct {
	// TTL is the cache lifetime of the warmed view. Keep it comfortably
	// above the job interval so the entry never goes cold between runs.
	TTL time.Duration

	// Timeout bounds one run.
	Timeout time.Duration
}

// DefaultWarmCatalogCacheConfig returns sensible defaults.
func DefaultWarmCatalogCacheConfig() WarmCatalogCacheConfig {
	return WarmCatalogCacheConfig{
		TTL:     time.Hour,
		Timeout: 10 * time.Second,
	}
}

// WarmCatalogCacheStats contains statistics from a warm run.
type WarmCatalogCacheStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Rows        int
	Items       int
}

// NewWarmCatalogCacheJob creates a new warm job.
func NewWarmCatalogCacheJob(cat *catalog.Catalog, cache *redis.Cache, logger *slog.Logger, config WarmCatalogCacheConfig) *WarmCatalogCacheJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TTL <= 0 {
		config = DefaultWarmCatalogCacheConfig()
	}
	return &WarmCatalogCacheJob{
		catalog: cat,
		cache:   cache,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *WarmCatalogCacheJob) Name() string {
	return "warm_catalog_cache"
}

// Description returns a human-readable description.
func (j *WarmCatalogCacheJob) Description() string {
	return "Precomputes the default catalog view into Redis"
}

// Run executes the warm job.
func (j *WarmCatalogCacheJob) Run(ctx context.Context) error {
	stats := &WarmCatalogCacheStats{StartedAt: time.Now()}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	rows := j.catalog.Rows(catalog.Filter{})
	for _, row := range rows {
		stats.Items += len(row.Items)
	}
	stats.Rows = len(rows)

	key := redis.CatalogRowsKey("default")
	if err := j.cache.Set(ctx, key, rows, j.config.TTL); err != nil {
		return fmt.Errorf("failed to warm catalog cache: %w", err)
	}

	stats.CompletedAt = time.Now()
	j.lastRunStats.Store(stats)

	j.logger.Info("catalog cache warmed",
		"rows", stats.Rows,
		"items", stats.Items,
		"ttl", j.config.TTL.String(),
	)
	return nil
}

// LastRunStats returns statistics from the last warm run.
func (j *WarmCatalogCacheJob) LastRunStats() *WarmCatalogCacheStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*WarmCatalogCacheStats)
}

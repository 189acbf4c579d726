package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/application/query"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARENT DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// ParentDigestJob snapshots the parent overview of each configured profile
// into Redis once a day. The dashboard reads the snapshot to show "yesterday"
// next to the live numbers without replaying the event history.
type ParentDigestJob struct {
	overview *query.ParentOverviewHandler
	cache    *redis.Cache
	logger   *slog.Logger
	config   ParentDigestConfig

	lastRunStats atomic.Value // *ParentDigestStats
}

// ParentDigestConfig contains configuration for the digest job.
type ParentDigestConfig struct {
	// LearnerIDs are the profiles to digest. The hub is a family device,
	// so the list is small and comes from configuration.
	LearnerIDs []string

	// TranscriptLimit bounds the tutor transcript in each digest.
	TranscriptLimit int

	// TTL is the snapshot lifetime. Two days keeps yesterday readable
	// until the next run replaces it.
	TTL time.Duration

	// Timeout bounds one run.
	Timeout time.Duration
}

// DefaultParentDigestConfig returns sensible defaults.
func DefaultParentDigestConfig() ParentDigestConfig {
	return ParentDigestConfig{
		TranscriptLimit: 10,
		TTL:             48 * time.Hour,
		Timeout:         30 * time.Second,
	}
}

// ParentDigestStats contains statistics from a digest run.
type ParentDigestStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Digested    int
	Errors      []error
}

// DigestKey is the Redis key of a learner's daily digest snapshot.
func DigestKey(learnerID string) string {
	return fmt.Sprintf("aikids:digest:%s", learnerID)
}

// NewParentDigestJob creates a new digest job.
func NewParentDigestJob(overview *query.ParentOverviewHandler, cache *redis.Cache, logger *slog.Logger, config ParentDigestConfig) *ParentDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TTL <= 0 {
		defaults := DefaultParentDigestConfig()
		defaults.LearnerIDs = config.LearnerIDs
		config = defaults
	}
	return &ParentDigestJob{
		overview: overview,
		cache:    cache,
		logger:   logger,
		config:   config,
	}
}

// Name returns the job name.
func (j *ParentDigestJob) Name() string {
	return "parent_digest"
}

// Description returns a human-readable description.
func (j *ParentDigestJob) Description() string {
	return "Snapshots the parent overview of each profile into Redis"
}

// Run executes the digest job.
func (j *ParentDigestJob) Run(ctx context.Context) error {
	stats := &ParentDigestStats{StartedAt: time.Now()}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	for _, learnerID := range j.config.LearnerIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dto, err := j.overview.Handle(ctx, query.ParentOverviewQuery{
			LearnerID:       learnerID,
			TranscriptLimit: j.config.TranscriptLimit,
		})
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to build parent digest",
				"learner_id", learnerID,
				"error", err,
			)
			continue
		}

		if err := j.cache.Set(ctx, DigestKey(learnerID), dto, j.config.TTL); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to store parent digest",
				"learner_id", learnerID,
				"error", err,
			)
			continue
		}

		stats.Digested++
		j.logger.Info("parent digest stored",
			"learner_id", learnerID,
			"xp", dto.XP,
			"completed_modules", dto.CompletedModules,
		)
	}

	stats.CompletedAt = time.Now()
	j.lastRunStats.Store(stats)
	return nil
}

// LastRunStats returns statistics from the last digest run.
func (j *ParentDigestJob) LastRunStats() *ParentDigestStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ParentDigestStats)
}

// Package jobs contains implementations of scheduled jobs for AI Kids Hub.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/application/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE TRAILER TASKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PruneTrailerTasksJob drops finished trailer tasks from the in-memory
// manager once they are old enough. Finished tasks stay around so the
// player screen can poll their final state; without pruning a long-lived
// process accumulates them forever.
type PruneTrailerTasksJob struct {
	manager *task.Manager
	logger  *slog.Logger
	config  PruneTrailerTasksConfig

	lastRunStats atomic.Value // *PruneTrailerTasksStats
}

// PruneTrailerTasksConfig contains configuration for the prune job.
type PruneTrailerTasksConfig struct {
	// Retention is how long finished tasks stay queryable.
	Retention time.Duration
}

// DefaultPruneTrailerTasksConfig returns sensible defaults.
func DefaultPruneTrailerTasksConfig() PruneTrailerTasksConfig {
	return PruneTrailerTasksConfig{
		Retention: 24 * time.Hour,
	}
}

// PruneTrailerTasksStats contains statistics from a prune run.
type PruneTrailerTasksStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Pruned      int
}

// NewPruneTrailerTasksJob creates a new prune job.
func NewPruneTrailerTasksJob(manager *task.Manager, logger *slog.Logger, config PruneTrailerTasksConfig) *PruneTrailerTasksJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Retention <= 0 {
		config = DefaultPruneTrailerTasksConfig()
	}
	return &PruneTrailerTasksJob{
		manager: manager,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *PruneTrailerTasksJob) Name() string {
	return "prune_trailer_tasks"
}

// Description returns a human-readable description.
func (j *PruneTrailerTasksJob) Description() string {
	return "Removes finished trailer tasks past the retention window"
}

// Run executes the prune job.
func (j *PruneTrailerTasksJob) Run(ctx context.Context) error {
	stats := &PruneTrailerTasksStats{StartedAt: time.Now()}

	stats.Pruned = j.manager.Prune(j.config.Retention)
	stats.CompletedAt = time.Now()
	j.lastRunStats.Store(stats)

	if stats.Pruned > 0 {
		j.logger.Info("pruned trailer tasks",
			"pruned", stats.Pruned,
			"retention", j.config.Retention.String(),
		)
	}
	return nil
}

// LastRunStats returns statistics from the last prune run.
func (j *PruneTrailerTasksJob) LastRunStats() *PruneTrailerTasksStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*PruneTrailerTasksStats)
}

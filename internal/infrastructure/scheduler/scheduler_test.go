package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingJob tallies its runs and optionally fails.
type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	cfg := DefaultSchedulerConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(cfg)
}

func TestSchedulerRegisterRejectsDuplicatesAndNil(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "warm-catalog"}
	schedule := NewIntervalSchedule(time.Hour)

	require.NoError(t, s.Register(job, schedule))

	err := s.Register(&countingJob{name: "warm-catalog"}, schedule)
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Register(nil, schedule), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)
}

func TestSchedulerStartStopLifecycle(t *testing.T) {
	s := newTestScheduler(t)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestSchedulerRunsDueJobs(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "prune-tasks"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Start(context.Background()))

	// Pull the first run into the past so the next tick launches it.
	s.mu.Lock()
	s.entries["prune-tasks"].nextRun = time.Now().Add(-time.Minute)
	s.mu.Unlock()
	s.launchDue()

	// Stop waits for the in-flight run.
	require.NoError(t, s.Stop())
	assert.Equal(t, int64(1), job.runs.Load())

	infos := s.Jobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "prune-tasks", infos[0].Name)
	assert.Equal(t, int64(1), infos[0].Runs)
	assert.Equal(t, int64(0), infos[0].Failures)
	assert.False(t, infos[0].LastRun.IsZero())
	assert.True(t, infos[0].NextRun.After(time.Now()))
}

func TestSchedulerTalliesFailures(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "parent-digest", err: errors.New("overview unavailable")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Start(context.Background()))

	s.mu.Lock()
	s.entries["parent-digest"].nextRun = time.Now().Add(-time.Minute)
	s.mu.Unlock()
	s.launchDue()

	require.NoError(t, s.Stop())

	infos := s.Jobs()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(1), infos[0].Failures)

	snap := s.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.InDelta(t, 0.0, snap.SuccessRate, 0.001)
}

func TestIntervalScheduleNext(t *testing.T) {
	schedule := NewIntervalSchedule(30 * time.Minute)
	now := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(30*time.Minute), schedule.Next(now))
	assert.Equal(t, "@every 30m0s", schedule.String())
}

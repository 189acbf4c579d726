// Package scheduler runs the hub's periodic jobs: warming the catalog
// cache, pruning finished trailer tasks, and storing the nightly
// parent digest.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of periodic work.
type Job interface {
	// Name uniquely identifies the job within one scheduler.
	Name() string

	// Run does the work. The context is cancelled on shutdown.
	Run(ctx context.Context) error

	// Description is shown in the stats endpoint.
	Description() string
}

// Schedule decides when a job runs next.
type Schedule interface {
	// Next returns the first run time strictly after t.
	Next(t time.Time) time.Time

	// String renders the schedule for logs and stats.
	String() string
}

var (
	// ErrNilJob rejects a nil job at registration.
	ErrNilJob = errors.New("job cannot be nil")

	// ErrNilSchedule rejects a nil schedule at registration.
	ErrNilSchedule = errors.New("schedule cannot be nil")

	// ErrJobAlreadyExists rejects duplicate job names.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrSchedulerAlreadyRunning is returned by a second Start.
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrSchedulerNotRunning is returned by Stop before Start.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Logger for job lifecycle logs.
	Logger *slog.Logger

	// Timezone in which cron-style schedules are evaluated.
	Timezone *time.Location

	// EnableMetrics turns on the per-job tally behind Metrics().
	EnableMetrics bool
}

// DefaultSchedulerConfig uses UTC and the default logger.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:        slog.Default(),
		Timezone:      time.UTC,
		EnableMetrics: true,
	}
}

// entry is one registered job plus its run state.
type entry struct {
	job      Job
	schedule Schedule
	lastRun  time.Time
	nextRun  time.Time
	runs     int64
	failures int64
}

// Scheduler ticks once a second and launches due jobs on goroutines.
// With three jobs on interval and cron schedules, that resolution is
// plenty.
type Scheduler struct {
	mu sync.RWMutex

	logger   *slog.Logger
	timezone *time.Location

	entries map[string]*entry
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started time.Time

	metrics *SchedulerMetrics
}

// NewScheduler builds a stopped scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}

	s := &Scheduler{
		logger:   config.Logger,
		timezone: config.Timezone,
		entries:  make(map[string]*entry),
	}
	if config.EnableMetrics {
		s.metrics = NewSchedulerMetrics()
	}
	return s
}

// Register adds a job. Names must be unique.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	now := time.Now().In(s.timezone)
	e := &entry{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(now),
	}
	s.entries[name] = e

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"next_run", e.nextRun.Format(time.RFC3339),
	)
	return nil
}

// Start launches the tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.started = time.Now()
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs_count", len(s.entries))

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels the loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("scheduler stopped", "uptime", time.Since(s.started).String())
	return nil
}

// IsRunning reports whether the tick loop is live.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.launchDue()
		}
	}
}

func (s *Scheduler) launchDue() {
	now := time.Now().In(s.timezone)

	s.mu.RLock()
	var due []*entry
	for _, e := range s.entries {
		if !e.nextRun.IsZero() && now.After(e.nextRun) {
			due = append(due, e)
		}
	}
	s.mu.RUnlock()

	for _, e := range due {
		s.wg.Add(1)
		go s.execute(e)
	}
}

func (s *Scheduler) execute(e *entry) {
	defer s.wg.Done()

	name := e.job.Name()
	started := time.Now()

	s.logger.Info("job started", "job", name)

	// Advance nextRun before running so a slow job is not re-launched
	// on the next tick.
	s.mu.Lock()
	e.lastRun = started
	e.nextRun = e.schedule.Next(started.In(s.timezone))
	e.runs++
	s.mu.Unlock()

	err := e.job.Run(s.ctx)
	elapsed := time.Since(started)

	if s.metrics != nil {
		s.metrics.record(name, elapsed, err == nil)
	}

	if err != nil {
		s.mu.Lock()
		e.failures++
		s.mu.Unlock()

		s.logger.Error("job failed", "job", name, "duration", elapsed.String(), "error", err)
		return
	}

	s.logger.Info("job completed", "job", name, "duration", elapsed.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo is the stats-endpoint view of one registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	Runs        int64     `json:"runs"`
	Failures    int64     `json:"failures"`
}

// Jobs returns the current state of every registered job.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		infos = append(infos, JobInfo{
			Name:        name,
			Description: e.job.Description(),
			Schedule:    e.schedule.String(),
			LastRun:     e.lastRun,
			NextRun:     e.nextRun,
			Runs:        e.runs,
			Failures:    e.failures,
		})
	}
	return infos
}

// Metrics returns the execution tally, or nil when metrics are off.
func (s *Scheduler) Metrics() *SchedulerMetrics {
	return s.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerMetrics tallies job executions across all jobs.
type SchedulerMetrics struct {
	mu sync.RWMutex

	executions int64
	successes  int64
	failures   int64
	duration   time.Duration
	byJob      map[string]int64
}

// NewSchedulerMetrics builds an empty tally.
func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{byJob: make(map[string]int64)}
}

func (m *SchedulerMetrics) record(job string, elapsed time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	m.duration += elapsed
	m.byJob[job]++
	if ok {
		m.successes++
	} else {
		m.failures++
	}
}

// MetricsSnapshot is the stats-endpoint view of the tally.
type MetricsSnapshot struct {
	TotalExecutions int64         `json:"total_executions"`
	TotalSuccesses  int64         `json:"total_successes"`
	TotalFailures   int64         `json:"total_failures"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Snapshot returns a point-in-time copy.
func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.executions,
		TotalSuccesses:  m.successes,
		TotalFailures:   m.failures,
		SuccessRate:     1.0,
	}
	if m.executions > 0 {
		snap.SuccessRate = float64(m.successes) / float64(m.executions)
		snap.AverageDuration = m.duration / time.Duration(m.executions)
	}
	return snap
}

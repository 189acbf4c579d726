// Package task runs trailer generation as in-process background jobs.
// Veo generation takes tens of seconds, so the HTTP layer accepts a task
// and polls it; the manager owns the task lifecycle and its goroutines.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// Status is the lifecycle state of a trailer task.
type Status string

const (
	// StatusPending - generation is queued or running.
	StatusPending Status = "pending"

	// StatusSucceeded - a video URL is available.
	StatusSucceeded Status = "succeeded"

	// StatusFailed - generation failed; FailureReason says why.
	StatusFailed Status = "failed"

	// StatusCancelled - the task was cancelled before finishing.
	StatusCancelled Status = "cancelled"
)

// Task is one trailer generation job.
type Task struct {
	// ID is the task identifier, a UUID assigned on start.
	ID string `json:"id"`

	// LearnerID is the profile that requested the trailer.
	LearnerID string `json:"learner_id"`

	// ItemID is the catalog item, empty for the season trailer.
	ItemID string `json:"item_id,omitempty"`

	// Prompt is the generation prompt.
	Prompt string `json:"prompt"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// VideoURL is the playable URL once the task succeeds.
	VideoURL string `json:"video_url,omitempty"`

	// FailureReason explains a failed task.
	FailureReason string `json:"failure_reason,omitempty"`

	// CreatedAt is when the task was accepted.
	CreatedAt time.Time `json:"created_at"`

	// FinishedAt is when the task left the pending state. Zero while pending.
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the task has left the pending state.
func (t Task) Finished() bool {
	return t.Status != StatusPending
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// VideoGenerator runs the long-running generation and returns a playable URL.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string) (string, error)
}

// Archiver persists finished tasks for the parent dashboard history.
type Archiver interface {
	ArchiveTask(ctx context.Context, t Task) error
}

// ══════════════════════════════════════════════════════════════════════════════
// MANAGER
// ══════════════════════════════════════════════════════════════════════════════

// Config tunes the task manager.
type Config struct {
	// MaxConcurrent bounds simultaneous generations.
	MaxConcurrent int

	// TaskTimeout aborts a generation that runs too long.
	TaskTimeout time.Duration

	// ArchiveTimeout bounds the post-finish archive write.
	ArchiveTimeout time.Duration
}

// DefaultConfig returns the default task manager configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  2,
		TaskTimeout:    5 * time.Minute,
		ArchiveTimeout: 10 * time.Second,
	}
}

type entry struct {
	task   Task
	cancel context.CancelFunc
}

// Manager owns trailer tasks and the goroutines that run them.
type Manager struct {
	mu      sync.RWMutex
	tasks   map[string]*entry
	order   []string
	closed  bool
	wg      sync.WaitGroup
	sem     chan struct{}
	config  Config
	video   VideoGenerator
	archive Archiver

	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewManager creates a task manager. The archiver and publisher may be nil.
func NewManager(video VideoGenerator, archive Archiver, publisher shared.EventPublisher, logger *slog.Logger, config Config) *Manager {
	if config.MaxConcurrent <= 0 {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		tasks:     make(map[string]*entry),
		sem:       make(chan struct{}, config.MaxConcurrent),
		config:    config,
		video:     video,
		archive:   archive,
		publisher: publisher,
		logger:    logger,
	}
}

// Start accepts a new task and launches its generation in the background.
func (m *Manager) Start(learnerID, itemID, prompt string) (Task, error) {
	if prompt == "" {
		return Task{}, shared.ErrEmptyValue
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Task{}, errors.New("task: manager is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.config.TaskTimeout)
	t := Task{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		ItemID:    itemID,
		Prompt:    prompt,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	m.tasks[t.ID] = &entry{task: t, cancel: cancel}
	m.order = append(m.order, t.ID)
	m.wg.Add(1)
	m.mu.Unlock()

	if m.publisher != nil {
		_ = m.publisher.Publish(shared.NewTrailerRequestedEvent(t.ID, t.ItemID, t.Prompt))
	}

	go m.run(ctx, cancel, t)
	return t, nil
}

// Get returns a task by ID.
func (m *Manager) Get(id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tasks[id]
	if !ok {
		return Task{}, shared.ErrTaskNotFound
	}
	return e.task, nil
}

// List returns the tasks of a learner, newest first.
func (m *Manager) List(learnerID string) []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Task, 0, len(m.order))
	for _, id := range m.order {
		if e := m.tasks[id]; e != nil && e.task.LearnerID == learnerID {
			out = append(out, e.task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Cancel stops a pending task. Finished tasks come back as
// shared.ErrTaskAlreadyDone.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	e, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return shared.ErrTaskNotFound
	}
	if e.task.Finished() {
		m.mu.Unlock()
		return shared.ErrTaskAlreadyDone
	}
	e.task.Status = StatusCancelled
	e.task.FinishedAt = time.Now().UTC()
	t := e.task
	cancel := e.cancel
	m.mu.Unlock()

	cancel()
	m.archiveTask(t)
	return nil
}

// Prune drops finished tasks whose FinishedAt is older than the retention
// window and returns how many were removed. Pending tasks are never pruned.
func (m *Manager) Prune(retention time.Duration) int {
	cutoff := time.Now().UTC().Add(-retention)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		e := m.tasks[id]
		if e != nil && e.task.Finished() && e.task.FinishedAt.Before(cutoff) {
			delete(m.tasks, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed
}

// Close cancels all pending tasks and waits for their goroutines.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, e := range m.tasks {
		if !e.task.Finished() {
			e.cancel()
		}
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// run executes one generation from semaphore acquisition to finish.
func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, t Task) {
	defer m.wg.Done()
	defer cancel()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		m.finish(t.ID, "", ctx.Err())
		return
	}

	url, err := m.video.GenerateVideo(ctx, t.Prompt)
	m.finish(t.ID, url, err)
}

// finish transitions a task out of pending, archives it and publishes
// the matching event. Tasks already cancelled stay cancelled.
func (m *Manager) finish(id, url string, genErr error) {
	m.mu.Lock()
	e, ok := m.tasks[id]
	if !ok || e.task.Finished() {
		m.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	e.task.FinishedAt = now
	switch {
	case genErr == nil:
		e.task.Status = StatusSucceeded
		e.task.VideoURL = url
	case errors.Is(genErr, context.Canceled):
		e.task.Status = StatusCancelled
	default:
		e.task.Status = StatusFailed
		e.task.FailureReason = genErr.Error()
	}
	t := e.task
	m.mu.Unlock()

	elapsed := t.FinishedAt.Sub(t.CreatedAt)
	switch t.Status {
	case StatusSucceeded:
		m.logger.Info("trailer task succeeded", "task_id", t.ID, "item_id", t.ItemID, "elapsed", elapsed)
		if m.publisher != nil {
			_ = m.publisher.Publish(shared.NewTrailerSucceededEvent(t.ID, t.ItemID, t.VideoURL, elapsed))
		}
	case StatusFailed:
		m.logger.Error("trailer task failed", "task_id", t.ID, "item_id", t.ItemID, "reason", t.FailureReason)
		if m.publisher != nil {
			_ = m.publisher.Publish(shared.NewTrailerFailedEvent(t.ID, t.ItemID, t.FailureReason, elapsed))
		}
	}

	m.archiveTask(t)
}

// archiveTask writes a finished task to durable storage, best effort.
func (m *Manager) archiveTask(t Task) {
	if m.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.config.ArchiveTimeout)
	defer cancel()
	if err := m.archive.ArchiveTask(ctx, t); err != nil {
		m.logger.Warn("failed to archive trailer task", "task_id", t.ID, "error", err)
	}
}

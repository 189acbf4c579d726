package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// fakeGenerator serves scripted results and can block until released.
type fakeGenerator struct {
	mu      sync.Mutex
	url     string
	err     error
	block   chan struct{}
	calls   int
	prompts []string
}

func (g *fakeGenerator) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

type fakeArchiver struct {
	mu    sync.Mutex
	tasks []Task
}

func (a *fakeArchiver) ArchiveTask(ctx context.Context, t Task) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks = append(a.tasks, t)
	return nil
}

func (a *fakeArchiver) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

func testConfig() Config {
	return Config{
		MaxConcurrent:  2,
		TaskTimeout:    time.Second,
		ArchiveTimeout: time.Second,
	}
}

func waitStatus(t *testing.T, m *Manager, id string, want Status) Task {
	t.Helper()
	var got Task
	require.Eventually(t, func() bool {
		task, err := m.Get(id)
		if err != nil {
			return false
		}
		got = task
		return task.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestStartRunsToSuccess(t *testing.T) {
	gen := &fakeGenerator{url: "https://video.example/clip.mp4?alt=media"}
	archive := &fakeArchiver{}
	m := NewManager(gen, archive, nil, nil, testConfig())
	defer m.Close()

	accepted, err := m.Start("learner-1", "3-7", "a neon robot city")
	require.NoError(t, err)
	assert.NotEmpty(t, accepted.ID)
	assert.Equal(t, StatusPending, accepted.Status)

	done := waitStatus(t, m, accepted.ID, StatusSucceeded)
	assert.Equal(t, "https://video.example/clip.mp4?alt=media", done.VideoURL)
	assert.False(t, done.FinishedAt.IsZero())

	require.Eventually(t, func() bool { return archive.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a neon robot city"}, gen.prompts)
}

func TestStartRejectsEmptyPrompt(t *testing.T) {
	m := NewManager(&fakeGenerator{}, nil, nil, nil, testConfig())
	defer m.Close()

	_, err := m.Start("learner-1", "", "")
	require.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestGenerationFailureIsRecorded(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	m := NewManager(gen, nil, nil, nil, testConfig())
	defer m.Close()

	accepted, err := m.Start("learner-1", "", "prompt")
	require.NoError(t, err)

	failed := waitStatus(t, m, accepted.ID, StatusFailed)
	assert.Equal(t, "quota exceeded", failed.FailureReason)
	assert.Empty(t, failed.VideoURL)
}

func TestCancelPendingTask(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	archive := &fakeArchiver{}
	m := NewManager(gen, archive, nil, nil, testConfig())
	defer m.Close()

	accepted, err := m.Start("learner-1", "", "prompt")
	require.NoError(t, err)

	require.NoError(t, m.Cancel(accepted.ID))

	cancelled, err := m.Get(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// A second cancel sees a finished task.
	require.ErrorIs(t, m.Cancel(accepted.ID), shared.ErrTaskAlreadyDone)

	// The cancelled state sticks even after the goroutine unwinds.
	time.Sleep(20 * time.Millisecond)
	still, err := m.Get(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, still.Status)
}

func TestCancelUnknownTask(t *testing.T) {
	m := NewManager(&fakeGenerator{}, nil, nil, nil, testConfig())
	defer m.Close()

	require.ErrorIs(t, m.Cancel("missing"), shared.ErrTaskNotFound)
	_, err := m.Get("missing")
	require.ErrorIs(t, err, shared.ErrTaskNotFound)
}

func TestListFiltersByLearnerNewestFirst(t *testing.T) {
	gen := &fakeGenerator{url: "https://video.example/clip.mp4"}
	m := NewManager(gen, nil, nil, nil, testConfig())
	defer m.Close()

	first, err := m.Start("learner-1", "1-1", "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.Start("learner-1", "1-2", "second")
	require.NoError(t, err)
	_, err = m.Start("learner-2", "1-3", "other learner")
	require.NoError(t, err)

	tasks := m.List("learner-1")
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestMaxConcurrentBoundsGenerations(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{url: "u", block: release}
	config := testConfig()
	config.MaxConcurrent = 1
	m := NewManager(gen, nil, nil, nil, config)
	defer m.Close()

	a, err := m.Start("learner-1", "", "first")
	require.NoError(t, err)
	b, err := m.Start("learner-1", "", "second")
	require.NoError(t, err)

	// Only the first generation may be in flight while the semaphore is held.
	require.Eventually(t, func() bool {
		gen.mu.Lock()
		defer gen.mu.Unlock()
		return gen.calls == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	waitStatus(t, m, a.ID, StatusSucceeded)
	waitStatus(t, m, b.ID, StatusSucceeded)
}

func TestCloseStopsPendingTasks(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	m := NewManager(gen, nil, nil, nil, testConfig())

	accepted, err := m.Start("learner-1", "", "prompt")
	require.NoError(t, err)

	m.Close()

	done, err := m.Get(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, done.Status)

	_, err = m.Start("learner-1", "", "prompt")
	require.Error(t, err)
}

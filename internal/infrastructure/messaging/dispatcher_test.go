package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *InMemoryEventBus) {
	t.Helper()

	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })

	cfg := DefaultDispatcherConfig(bus)
	cfg.RetryConfig.MaxRetries = 2
	cfg.RetryConfig.InitialBackoff = time.Millisecond
	cfg.RetryConfig.MaxBackoff = 5 * time.Millisecond
	cfg.Logger = discardLogger()

	d := NewDispatcher(cfg)
	t.Cleanup(func() { _ = d.Stop() })
	return d, bus
}

func TestDispatcherRoutesByEventType(t *testing.T) {
	d, bus := newTestDispatcher(t)

	var mu sync.Mutex
	var got []string
	handler := func(name string) shared.EventHandler {
		return func(shared.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name)
			return nil
		}
	}

	require.NoError(t, d.RegisterSync(shared.EventXPGained, "xp", handler("xp")))
	require.NoError(t, d.RegisterSync(shared.EventBadgeUnlocked, "badge", handler("badge")))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(newPingEvent(shared.EventXPGained, "learner-1")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"xp"}, got)
}

func TestDispatcherRejectsBadRegistrations(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Register(shared.EventXPGained, "", func(shared.Event) error { return nil })
	assert.Error(t, err)

	err = d.Register(shared.EventXPGained, "nil-handler", nil)
	assert.Error(t, err)
}

func TestDispatcherRetriesThenDeadLetters(t *testing.T) {
	d, bus := newTestDispatcher(t)

	var mu sync.Mutex
	var attempts int
	require.NoError(t, d.RegisterSync(shared.EventXPGained, "always-fails", func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("projection broken")
	}))
	require.NoError(t, d.Start())

	err := bus.Publish(newPingEvent(shared.EventXPGained, "learner-1"))
	require.Error(t, err)

	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()

	dlq := d.DeadLetters()
	require.NotNil(t, dlq)
	require.Equal(t, 1, dlq.Size())

	entry := dlq.Entries()[0]
	assert.Equal(t, "always-fails", entry.HandlerName)
	assert.Equal(t, 3, entry.Attempts)
	assert.Equal(t, shared.EventXPGained, entry.Event.EventType())
}

func TestDispatcherRecoversFromSucceedingRetry(t *testing.T) {
	d, bus := newTestDispatcher(t)

	var mu sync.Mutex
	var attempts int
	require.NoError(t, d.RegisterSync(shared.EventXPGained, "flaky", func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(newPingEvent(shared.EventXPGained, "learner-1")))
	assert.Equal(t, 0, d.DeadLetters().Size())

	snap := d.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalDispatched)
	assert.Equal(t, int64(1), snap.RetrySuccesses)
}

func TestRecoveryMiddlewareTurnsPanicIntoError(t *testing.T) {
	d, bus := newTestDispatcher(t)
	d.Use(RecoveryMiddleware(discardLogger()))

	require.NoError(t, d.RegisterSync(shared.EventXPGained, "panics", func(shared.Event) error {
		panic("bad projection")
	}))
	require.NoError(t, d.Start())

	err := bus.Publish(newPingEvent(shared.EventXPGained, "learner-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestMetricsMiddlewareTalliesExecutions(t *testing.T) {
	d, bus := newTestDispatcher(t)
	d.Use(MetricsMiddleware(d.Metrics()))

	require.NoError(t, d.RegisterSync(shared.EventXPGained, "ok", func(shared.Event) error {
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(newPingEvent(shared.EventXPGained, "learner-1")))

	snap := d.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(0), snap.TotalFailures)
	assert.InDelta(t, 1.0, snap.SuccessRate, 0.001)
}

func TestDeadLetterQueueDropsOldestAtCapacity(t *testing.T) {
	q := NewDeadLetterQueue(2)

	q.Add(DeadLetterEntry{HandlerName: "first"})
	q.Add(DeadLetterEntry{HandlerName: "second"})
	q.Add(DeadLetterEntry{HandlerName: "third"})

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].HandlerName)
	assert.Equal(t, "third", entries[1].HandlerName)
}

package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// pingEvent is a minimal event for bus tests.
type pingEvent struct {
	shared.BaseEvent
}

func (e pingEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"aggregate_id": e.AggregateID()}
}

func newPingEvent(eventType shared.EventType, aggregateID string) pingEvent {
	return pingEvent{BaseEvent: shared.NewBaseEvent(eventType, aggregateID)}
}

func TestInMemoryEventBusDeliversToTypeAndCatchAll(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })

	var typed, all int
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error {
		typed++
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(newPingEvent(shared.EventXPGained, "learner-1")))
	require.NoError(t, bus.Publish(newPingEvent(shared.EventModuleCompleted, "learner-1")))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestInMemoryEventBusSyncErrorSurfacesToPublisher(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })

	boom := errors.New("projection broken")
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error {
		return boom
	}))

	err := bus.Publish(newPingEvent(shared.EventXPGained, "learner-1"))
	assert.ErrorIs(t, err, boom)
}

func TestInMemoryEventBusAsyncWaitsOnClose(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	var handled int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(newPingEvent(shared.EventXPGained, "learner-1")))
	}

	// Close waits for the in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, handled)
}

func TestInMemoryEventBusRejectsAfterClose(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())

	err := bus.Publish(newPingEvent(shared.EventXPGained, "learner-1"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventXPGained, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBusMetricsSnapshot(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })

	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error { return nil }))
	require.NoError(t, bus.Subscribe(shared.EventModuleCompleted, func(shared.Event) error {
		return errors.New("broken")
	}))

	require.NoError(t, bus.Publish(newPingEvent(shared.EventXPGained, "learner-1")))
	_ = bus.Publish(newPingEvent(shared.EventModuleCompleted, "learner-1"))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.InDelta(t, 0.5, snap.SuccessRate, 0.001)
}

// Package messaging carries domain events from command handlers to
// the projections and notification handlers that react to them. The
// hub runs on a single process, so the bus is in-memory; cross-process
// delivery is not a concern here.
package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ErrEventBusClosed is returned for publishes and subscriptions on a
// closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events to subscribers in-process. With
// AsyncMode on, handlers run on a bounded worker pool; otherwise they
// run inline on the publishing goroutine and the first handler error
// surfaces to the publisher.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	catchAll []shared.EventHandler
	closed   bool

	async   bool
	workers chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *EventBusMetrics
}

// InMemoryEventBusConfig configures an InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on the worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent async handlers.
	WorkerPoolSize int

	// Logger for handler errors. Defaults to slog.Default.
	Logger *slog.Logger

	// EnableMetrics keeps a publish and execution tally.
	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig runs synchronously with metrics on.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      false,
		WorkerPoolSize: 10,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus builds a bus from the config.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	bus := &InMemoryEventBus{
		byType:  make(map[shared.EventType][]shared.EventHandler),
		async:   config.AsyncMode,
		workers: make(chan struct{}, config.WorkerPoolSize),
		logger:  config.Logger,
	}
	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}
	return bus
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.byType[eventType] = append(b.byType[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for every event. The dispatcher
// attaches here.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.catchAll = append(b.catchAll, handler)
	return nil
}

// Publish delivers an event to its type subscribers and the catch-all
// subscribers.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0, len(b.byType[event.EventType()])+len(b.catchAll))
	handlers = append(handlers, b.byType[event.EventType()]...)
	handlers = append(handlers, b.catchAll...)
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	if b.async {
		for _, h := range handlers {
			b.runAsync(event, h)
		}
		return nil
	}

	for _, h := range handlers {
		if err := b.runSync(event, h); err != nil {
			return err
		}
	}
	return nil
}

func (b *InMemoryEventBus) runAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		b.workers <- struct{}{}
		defer func() { <-b.workers }()

		start := time.Now()
		err := handler(event)
		if b.metrics != nil {
			b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)
		}
		if err != nil {
			b.logger.Error("async handler failed",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
		}
	}()
}

func (b *InMemoryEventBus) runSync(event shared.Event, handler shared.EventHandler) error {
	start := time.Now()
	err := handler(event)
	if b.metrics != nil {
		b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)
	}
	return err
}

// Close stops accepting events and waits for in-flight async handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Metrics returns the tally, or nil when metrics are disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tallies publishes and handler executions by type.
type EventBusMetrics struct {
	mu sync.RWMutex

	published  map[shared.EventType]int64
	executions int64
	failures   int64
	duration   time.Duration
}

// NewEventBusMetrics builds an empty tally.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish tallies one published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordHandlerExecution tallies one handler run.
func (m *EventBusMetrics) RecordHandlerExecution(eventType shared.EventType, elapsed time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	m.duration += elapsed
	if !success {
		m.failures++
	}
}

// EventBusMetricsSnapshot is the stats-endpoint view of the tally.
type EventBusMetricsSnapshot struct {
	TotalPublished  int64         `json:"total_published"`
	TotalExecutions int64         `json:"total_executions"`
	TotalFailures   int64         `json:"total_failures"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Snapshot returns a point-in-time copy.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var published int64
	for _, n := range m.published {
		published += n
	}

	snap := EventBusMetricsSnapshot{
		TotalPublished:  published,
		TotalExecutions: m.executions,
		TotalFailures:   m.failures,
		SuccessRate:     1.0,
	}
	if m.executions > 0 {
		snap.SuccessRate = float64(m.executions-m.failures) / float64(m.executions)
		snap.AverageDuration = m.duration / time.Duration(m.executions)
	}
	return snap
}

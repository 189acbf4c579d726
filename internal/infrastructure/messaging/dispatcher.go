package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher subscribes to the event bus and fans events out to named
// handlers: the achievement projector, the completion denormalizer,
// the XP history sink. Handlers run through a middleware chain with
// retry; events that exhaust their retries land in a dead letter
// queue that the stats endpoint exposes.
type Dispatcher struct {
	bus         shared.EventBus
	subs        map[shared.EventType][]subscription
	middlewares []Middleware
	retry       RetryConfig
	deadLetters *DeadLetterQueue
	logger      *slog.Logger
	metrics     *DispatcherMetrics

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	workers chan struct{}
}

// subscription is one named handler for one event type.
type subscription struct {
	name       string
	handler    shared.EventHandler
	async      bool
	maxRetries int
	timeout    time.Duration
}

// RetryConfig shapes the backoff between handler retries.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig retries three times over a few seconds. Handlers
// here touch in-process state, so failures are logic bugs more often
// than transient ones; a short budget keeps the queue honest.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// EventBus to subscribe on.
	EventBus shared.EventBus

	// WorkerPoolSize bounds concurrent handler executions.
	WorkerPoolSize int

	// RetryConfig is the default retry budget per handler.
	RetryConfig RetryConfig

	// EnableDeadLetterQueue keeps events whose handlers gave up.
	EnableDeadLetterQueue bool

	// DeadLetterQueueSize caps the queue; oldest entries fall off.
	DeadLetterQueueSize int

	// Logger for handler lifecycle logs.
	Logger *slog.Logger
}

// DefaultDispatcherConfig enables the dead letter queue with room for
// a day's worth of failures on a family device.
func DefaultDispatcherConfig(bus shared.EventBus) DispatcherConfig {
	return DispatcherConfig{
		EventBus:              bus,
		WorkerPoolSize:        10,
		RetryConfig:           DefaultRetryConfig(),
		EnableDeadLetterQueue: true,
		DeadLetterQueueSize:   1000,
	}
}

// NewDispatcher builds a dispatcher. Call Start to begin receiving.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		bus:     config.EventBus,
		subs:    make(map[shared.EventType][]subscription),
		retry:   config.RetryConfig,
		logger:  config.Logger,
		metrics: NewDispatcherMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		workers: make(chan struct{}, config.WorkerPoolSize),
	}
	if config.EnableDeadLetterQueue {
		d.deadLetters = NewDeadLetterQueue(config.DeadLetterQueueSize)
	}
	return d
}

// Register adds an async handler for an event type.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.register(eventType, name, handler, true)
}

// RegisterSync adds a handler whose failure surfaces to the publisher.
func (d *Dispatcher) RegisterSync(eventType shared.EventType, name string, handler shared.EventHandler) error {
	return d.register(eventType, name, handler, false)
}

func (d *Dispatcher) register(eventType shared.EventType, name string, handler shared.EventHandler, async bool) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	if name == "" {
		return errors.New("handler name cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.subs[eventType] = append(d.subs[eventType], subscription{
		name:       name,
		handler:    handler,
		async:      async,
		maxRetries: d.retry.MaxRetries,
		timeout:    30 * time.Second,
	})

	d.logger.Debug("registered handler",
		"event_type", eventType,
		"handler_name", name,
		"async", async,
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Use appends a middleware. Middlewares run in the order added.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware converts handler panics into errors so one bad
// projection cannot take the bus down.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler failures at error level and
// completions at debug.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			elapsed := time.Since(start)

			if err != nil {
				logger.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", elapsed,
					"error", err,
				)
				return err
			}

			logger.Debug("handler completed",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"duration", elapsed,
			)
			return nil
		}
	}
}

// MetricsMiddleware tallies handler executions per event type.
func MetricsMiddleware(metrics *DispatcherMetrics) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			metrics.recordExecution(event.EventType(), time.Since(start), err == nil)
			return err
		}
	}
}

// TimeoutMiddleware fails a handler that outlives its budget.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			done := make(chan error, 1)
			go func() {
				done <- next(event)
			}()

			select {
			case err := <-done:
				return err
			case <-time.After(timeout):
				return fmt.Errorf("handler timeout after %v", timeout)
			}
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHING
// ══════════════════════════════════════════════════════════════════════════════

// Start subscribes the dispatcher to every event on the bus.
func (d *Dispatcher) Start() error {
	return d.bus.SubscribeAll(func(event shared.Event) error {
		return d.dispatch(event)
	})
}

// Stop cancels in-flight handler waits.
func (d *Dispatcher) Stop() error {
	d.cancel()
	d.logger.Info("dispatcher stopped")
	return nil
}

func (d *Dispatcher) dispatch(event shared.Event) error {
	d.mu.RLock()
	subs := d.subs[event.EventType()]
	middlewares := d.middlewares
	d.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	d.metrics.recordDispatch(event.EventType())

	var wg sync.WaitGroup
	var syncErrs []error
	var errMu sync.Mutex

	for _, sub := range subs {
		if sub.async {
			wg.Add(1)
			go func(s subscription) {
				defer wg.Done()
				_ = d.run(event, s, middlewares)
			}(sub)
			continue
		}

		if err := d.run(event, sub, middlewares); err != nil {
			errMu.Lock()
			syncErrs = append(syncErrs, err)
			errMu.Unlock()
		}
	}

	wg.Wait()

	if len(syncErrs) > 0 {
		return fmt.Errorf("sync handler errors: %v", syncErrs)
	}
	return nil
}

// run executes one subscription with middleware, timeout and retry.
func (d *Dispatcher) run(event shared.Event, sub subscription, middlewares []Middleware) error {
	select {
	case d.workers <- struct{}{}:
		defer func() { <-d.workers }()
	case <-d.ctx.Done():
		return d.ctx.Err()
	}

	handler := sub.handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	var lastErr error
	for attempt := 0; attempt <= sub.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.backoff(attempt)
			d.logger.Debug("retrying handler",
				"handler", sub.name,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := d.runOnce(handler, event, sub.timeout)
		if err == nil {
			if attempt > 0 {
				d.metrics.recordRetrySuccess()
			}
			return nil
		}

		lastErr = err
		d.logger.Warn("handler attempt failed",
			"handler", sub.name,
			"attempt", attempt,
			"error", err,
		)
	}

	if d.deadLetters != nil {
		d.deadLetters.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: sub.name,
			Error:       lastErr,
			Attempts:    sub.maxRetries + 1,
			FailedAt:    time.Now(),
		})
	}

	d.metrics.recordFailure(event.EventType())
	return fmt.Errorf("handler %s failed after %d attempts: %w", sub.name, sub.maxRetries+1, lastErr)
}

func (d *Dispatcher) runOnce(handler shared.EventHandler, event shared.Event, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("handler timeout after %v", timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	b := float64(d.retry.InitialBackoff)
	for i := 1; i < attempt; i++ {
		b *= d.retry.BackoffMultiplier
	}
	if b > float64(d.retry.MaxBackoff) {
		b = float64(d.retry.MaxBackoff)
	}
	return time.Duration(b)
}

// Metrics returns the execution tally.
func (d *Dispatcher) Metrics() *DispatcherMetrics {
	return d.metrics
}

// DeadLetters returns the dead letter queue, or nil when disabled.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetters
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry records one event a handler permanently failed on.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue is a bounded FIFO of failed events.
type DeadLetterQueue struct {
	mu      sync.RWMutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue builds a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, dropping the oldest at capacity.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the queued entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of queued entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// DispatcherMetrics tallies dispatches and handler executions.
type DispatcherMetrics struct {
	mu sync.RWMutex

	dispatched     map[shared.EventType]int64
	executions     int64
	successes      int64
	failures       int64
	retrySuccesses int64
	duration       time.Duration
}

// NewDispatcherMetrics builds an empty tally.
func NewDispatcherMetrics() *DispatcherMetrics {
	return &DispatcherMetrics{dispatched: make(map[shared.EventType]int64)}
}

func (m *DispatcherMetrics) recordDispatch(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched[eventType]++
}

func (m *DispatcherMetrics) recordExecution(eventType shared.EventType, elapsed time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	m.duration += elapsed
	if ok {
		m.successes++
	} else {
		m.failures++
	}
}

func (m *DispatcherMetrics) recordRetrySuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrySuccesses++
}

func (m *DispatcherMetrics) recordFailure(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// DispatcherMetricsSnapshot is the stats-endpoint view of the tally.
type DispatcherMetricsSnapshot struct {
	TotalDispatched int64         `json:"total_dispatched"`
	TotalExecutions int64         `json:"total_executions"`
	TotalFailures   int64         `json:"total_failures"`
	RetrySuccesses  int64         `json:"retry_successes"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Snapshot returns a point-in-time copy.
func (m *DispatcherMetrics) Snapshot() DispatcherMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var dispatched int64
	for _, n := range m.dispatched {
		dispatched += n
	}

	snap := DispatcherMetricsSnapshot{
		TotalDispatched: dispatched,
		TotalExecutions: m.executions,
		TotalFailures:   m.failures,
		RetrySuccesses:  m.retrySuccesses,
		SuccessRate:     1.0,
	}
	if m.executions > 0 {
		snap.SuccessRate = float64(m.successes) / float64(m.executions)
		snap.AverageDuration = m.duration / time.Duration(m.executions)
	}
	return snap
}

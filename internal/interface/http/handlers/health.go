package handlers

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker aggregates the liveness of the hub's dependencies.
type HealthChecker interface {
	// Check runs every registered probe and reports the combined state.
	Check(ctx context.Context) HealthStatus

	// AddCheck registers a named probe.
	AddCheck(name string, check HealthCheckFunc)
}

// HealthCheckFunc probes a single dependency. A nil return means
// healthy.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is the wire shape of /health.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is one probe's outcome.
type CheckResult struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// CompositeHealthChecker runs its probes concurrently, each under its
// own timeout, so one hung dependency cannot stall the whole report.
type CompositeHealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheckFunc
	started time.Time
	version string
	timeout time.Duration
}

// NewCompositeHealthChecker builds an empty checker that reports the
// given version string.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:  make(map[string]HealthCheckFunc),
		started: time.Now(),
		version: version,
		timeout: 5 * time.Second,
	}
}

// AddCheck registers a named probe, replacing any previous one with
// the same name.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs all probes and merges their results. Any failing probe
// marks the whole service unhealthy and not ready.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	probes := make(map[string]HealthCheckFunc, len(c.checks))
	for name, fn := range c.checks {
		probes[name] = fn
	}
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult, len(probes)),
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	if len(probes) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	type outcome struct {
		name   string
		result CheckResult
	}

	var wg sync.WaitGroup
	results := make(chan outcome, len(probes))

	for name, fn := range probes {
		wg.Add(1)
		go func(name string, fn HealthCheckFunc) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := fn(probeCtx)

			res := CheckResult{
				Healthy:     err == nil,
				Message:     "OK",
				Duration:    time.Since(start).Round(time.Millisecond).String(),
				LastChecked: time.Now().UTC(),
			}
			if err != nil {
				res.Message = err.Error()
			}
			results <- outcome{name: name, result: res}
		}(name, fn)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed []string
	for out := range results {
		status.Checks[out.name] = out.result
		if !out.result.Healthy {
			status.Healthy = false
			status.Ready = false
			failed = append(failed, out.name)
		}
	}

	if status.Healthy {
		status.Message = "All checks passed"
	} else {
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}

	return status
}

// DatabaseChecker is satisfied by the Postgres connection pool.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// NewDatabaseCheck probes the durable store.
func NewDatabaseCheck(db DatabaseChecker) HealthCheckFunc {
	return func(ctx context.Context) error {
		return db.Ping(ctx)
	}
}

// CacheChecker is satisfied by the Redis cache.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// NewCacheCheck probes the cache.
func NewCacheCheck(cache CacheChecker) HealthCheckFunc {
	return func(ctx context.Context) error {
		return cache.Ping(ctx)
	}
}

// NoopHealthChecker always reports healthy. Used in tests and when the
// hub runs without external dependencies.
type NoopHealthChecker struct {
	started time.Time
}

// NewNoopHealthChecker builds a checker with no probes.
func NewNoopHealthChecker() *NoopHealthChecker {
	return &NoopHealthChecker{started: time.Now()}
}

// Check reports a healthy, ready service.
func (n *NoopHealthChecker) Check(ctx context.Context) HealthStatus {
	return HealthStatus{
		Healthy:   true,
		Ready:     true,
		Message:   "OK",
		Uptime:    time.Since(n.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// AddCheck is a no-op.
func (n *NoopHealthChecker) AddCheck(name string, check HealthCheckFunc) {}

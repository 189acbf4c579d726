// Package circuitbreaker stops the hub from hammering a failing
// upstream. When Gemini starts erroring, the breaker opens and callers
// fall back to canned tutor answers instead of queueing timeouts.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker's position.
type State int

const (
	// StateClosed lets requests through.
	StateClosed State = iota
	// StateOpen rejects requests until the cool-down passes.
	StateOpen
	// StateHalfOpen lets a probe request through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var (
	// ErrCircuitOpen is returned while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned when the half-open probe slot is
	// already taken.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config tunes the breaker's transitions.
type Config struct {
	// Name shows up in state-change callbacks and logs.
	Name string

	// FailureThreshold is the consecutive-failure count that opens
	// the circuit.
	FailureThreshold int

	// SuccessThreshold is the consecutive-success count in half-open
	// that closes it again.
	SuccessThreshold int

	// CoolDown is how long the circuit stays open before a probe is
	// allowed.
	CoolDown time.Duration

	// MaxHalfOpenRequests bounds concurrent probes.
	MaxHalfOpenRequests int

	// OnStateChange fires on every transition.
	OnStateChange func(name string, from, to State)
}

// Counts is a running tally of requests seen by the breaker.
type Counts struct {
	Requests             int
	TotalSuccesses       int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

// CircuitBreaker tracks failures of one upstream dependency.
type CircuitBreaker struct {
	cfg Config

	mu          sync.Mutex
	state       State
	counts      Counts
	openedAt    time.Time
	probeActive int
}

// New builds a breaker, filling zero config fields with defaults.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	if cfg.MaxHalfOpenRequests <= 0 {
		cfg.MaxHalfOpenRequests = 1
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// admit decides whether a request may proceed right now.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.openedAt) < cb.cfg.CoolDown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probeActive = 1
		return nil

	case StateHalfOpen:
		if cb.probeActive >= cb.cfg.MaxHalfOpenRequests {
			return ErrTooManyRequests
		}
		cb.probeActive++
		return nil
	}

	return ErrCircuitOpen
}

// record updates the tallies and moves the state machine.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// The probe slot frees up as soon as its request finishes.
	if cb.state == StateHalfOpen && cb.probeActive > 0 {
		cb.probeActive--
	}

	cb.counts.Requests++

	if err != nil {
		cb.counts.TotalFailures++
		cb.counts.ConsecutiveFailures++
		cb.counts.ConsecutiveSuccesses = 0
		cb.openedAt = time.Now()

		switch cb.state {
		case StateClosed:
			if cb.counts.ConsecutiveFailures >= cb.cfg.FailureThreshold {
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			// A failed probe reopens immediately.
			cb.transition(StateOpen)
		}
		return
	}

	cb.counts.TotalSuccesses++
	cb.counts.ConsecutiveSuccesses++
	cb.counts.ConsecutiveFailures = 0

	if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.cfg.SuccessThreshold {
		cb.transition(StateClosed)
	}
}

// transition must be called with the lock held.
func (cb *CircuitBreaker) transition(next State) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	cb.counts.ConsecutiveSuccesses = 0
	cb.counts.ConsecutiveFailures = 0
	cb.probeActive = 0

	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, prev, next)
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a copy of the running tally.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Reset closes the circuit and clears all tallies.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.counts = Counts{}
	cb.probeActive = 0
}

// GeminiAPIBreaker trips fast and recovers slow: three failures open
// the circuit and it waits a full minute before probing, since a
// struggling Gemini backend rarely recovers in seconds.
func GeminiAPIBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Config{
		Name:                "gemini-api",
		FailureThreshold:    3,
		SuccessThreshold:    2,
		CoolDown:            time.Minute,
		MaxHalfOpenRequests: 1,
		OnStateChange:       onStateChange,
	})
}

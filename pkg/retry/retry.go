// Package retry wraps flaky upstream calls with exponential backoff.
// The Gemini endpoints are the main consumer: rate-limit and 5xx
// responses are worth a second attempt, quota and auth errors are not.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryableError marks an error as transient. The wrapped error is
// surfaced once attempts run out.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// PermanentError marks an error that retrying cannot fix, such as a
// rejected API key or an exhausted quota.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not retryable. Do returns the wrapped error
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Config controls the backoff curve.
type Config struct {
	// MaxAttempts counts the first call too, so 3 means two retries.
	MaxAttempts int

	// InitialDelay is the wait after the first failure.
	InitialDelay time.Duration

	// MaxDelay caps the backoff curve.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts.
	Multiplier float64

	// Jitter randomizes each delay by up to this fraction in either
	// direction, so concurrent callers do not retry in lockstep.
	Jitter float64
}

// Retrier runs operations under a fixed backoff policy.
type Retrier struct {
	cfg Config
}

// New builds a Retrier, filling zero fields with defaults.
func New(cfg Config) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 2.0
	}
	return &Retrier{cfg: cfg}
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. Context cancellation stops the loop between
// attempts; the last observed error wins over ctx.Err when both exist.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}

		var transient *RetryableError
		if !errors.As(err, &transient) {
			// Unclassified errors are not retried.
			return err
		}

		if attempt >= r.cfg.MaxAttempts {
			return transient.Err
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(r.delay(attempt)):
		}
	}
}

// delay computes the wait before the next attempt.
func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.cfg.InitialDelay) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	if d > float64(r.cfg.MaxDelay) {
		d = float64(r.cfg.MaxDelay)
	}
	if r.cfg.Jitter > 0 {
		d += d * r.cfg.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// GeminiRetrier is tuned for Gemini calls: a slow start so a
// rate-limited request is not hammered, and enough jitter that tutor
// and trailer calls retrying at once spread out.
func GeminiRetrier() *Retrier {
	return New(Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	})
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(maxAttempts int) *Retrier {
	return New(Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	})
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	r := fastRetrier(3)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	r := fastRetrier(3)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("rate limited"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsUnderlyingErrorAtExhaustion(t *testing.T) {
	r := fastRetrier(2)

	underlying := errors.New("still rate limited")
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(underlying)
	})

	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(5)

	rejected := errors.New("api key rejected")
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(rejected)
	})

	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, calls)
}

func TestDoDoesNotRetryUnclassifiedErrors(t *testing.T) {
	r := fastRetrier(5)

	plain := errors.New("unexpected response shape")
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return plain
	})

	assert.ErrorIs(t, err, plain)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	r := New(Config{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	transient := errors.New("rate limited")

	calls := 0
	err := r.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return Retryable(transient)
	})

	// The last observed error wins over ctx.Err.
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 1, calls)
}

func TestRetryableAndPermanentPreserveNil(t *testing.T) {
	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}

func TestDelayGrowsAndCaps(t *testing.T) {
	r := New(Config{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     300 * time.Millisecond,
		Multiplier:   2.0,
	})

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 200*time.Millisecond, r.delay(2))
	assert.Equal(t, 300*time.Millisecond, r.delay(3))
	assert.Equal(t, 300*time.Millisecond, r.delay(4))
}

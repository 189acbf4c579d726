package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream error")

func failingCall(context.Context) error { return errUpstream }
func okCall(context.Context) error      { return nil }

func newTestBreaker(coolDown time.Duration) *CircuitBreaker {
	return New(Config{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		CoolDown:         coolDown,
	})
}

func trip(t *testing.T, cb *CircuitBreaker) {
	t.Helper()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), failingCall)
	}
	require.Equal(t, StateOpen, cb.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), failingCall)
		assert.ErrorIs(t, err, errUpstream)
		assert.Equal(t, StateClosed, cb.State())
	}

	err := cb.Execute(context.Background(), failingCall)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	// While open, requests are rejected without calling upstream.
	err = cb.Execute(context.Background(), failingCall)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, cb.Counts().Requests)
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), failingCall)
	require.NoError(t, cb.Execute(context.Background(), okCall))
	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), failingCall)

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	cb := newTestBreaker(time.Millisecond)
	trip(t, cb)

	time.Sleep(5 * time.Millisecond)

	// Two consecutive successful probes close the circuit.
	require.NoError(t, cb.Execute(context.Background(), okCall))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(context.Background(), okCall))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := newTestBreaker(time.Millisecond)
	trip(t, cb)

	time.Sleep(5 * time.Millisecond)

	err := cb.Execute(context.Background(), failingCall)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerBoundsConcurrentProbes(t *testing.T) {
	cb := newTestBreaker(time.Millisecond)
	trip(t, cb)

	time.Sleep(5 * time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// The single probe slot is taken.
	err := cb.Execute(context.Background(), okCall)
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	require.NoError(t, <-done)
}

func TestBreakerReset(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	trip(t, cb)

	cb.Reset()

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, Counts{}, cb.Counts())
	require.NoError(t, cb.Execute(context.Background(), okCall))
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New(Config{
		Name:             "gemini-api",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		CoolDown:         time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), failingCall)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cb.Execute(context.Background(), okCall))

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
}

package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeHealthCheckerNoChecks(t *testing.T) {
	checker := NewCompositeHealthChecker("1.0.0")

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "No health checks registered", status.Message)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestCompositeHealthCheckerAllPassing(t *testing.T) {
	checker := NewCompositeHealthChecker("1.0.0")
	checker.AddCheck("database", func(context.Context) error { return nil })
	checker.AddCheck("cache", func(context.Context) error { return nil })

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "All checks passed", status.Message)
	require.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["database"].Healthy)
	assert.True(t, status.Checks["cache"].Healthy)
}

func TestCompositeHealthCheckerReportsFailures(t *testing.T) {
	checker := NewCompositeHealthChecker("1.0.0")
	checker.AddCheck("database", func(context.Context) error { return nil })
	checker.AddCheck("gemini", func(context.Context) error {
		return errors.New("circuit breaker open")
	})

	status := checker.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Contains(t, status.Message, "Some checks failed")
	assert.Contains(t, status.Message, "gemini")

	require.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["database"].Healthy)
	assert.False(t, status.Checks["gemini"].Healthy)
	assert.Equal(t, "circuit breaker open", status.Checks["gemini"].Message)
}

func TestNoopHealthCheckerAlwaysHealthy(t *testing.T) {
	checker := NewNoopHealthChecker()
	checker.AddCheck("ignored", func(context.Context) error {
		return errors.New("never runs")
	})

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
}

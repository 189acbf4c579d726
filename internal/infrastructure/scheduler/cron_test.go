package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpressionFieldSyntax(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"every minute", "* * * * *"},
		{"fixed time", "30 19 * * *"},
		{"step", "*/15 * * * *"},
		{"range", "0 9-17 * * *"},
		{"list", "0 8,12,18 * * *"},
		{"range with step", "0 9-17/2 * * *"},
		{"weekday", "0 10 * * 6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestParseCronExpressionRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"too few fields", "30 19 * *"},
		{"too many fields", "30 19 * * * *"},
		{"minute out of range", "60 * * * *"},
		{"hour out of range", "0 24 * * *"},
		{"weekday out of range", "0 0 * * 7"},
		{"garbage value", "x * * * *"},
		{"zero step", "*/0 * * * *"},
		{"inverted range", "0 17-9 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCronExpressionNext(t *testing.T) {
	// Wednesday 2026-01-07 18:45 UTC.
	from := time.Date(2026, 1, 7, 18, 45, 0, 0, time.UTC)

	t.Run("same day when the slot is still ahead", func(t *testing.T) {
		digest := MustParseCronExpression("30 19 * * *")
		next := digest.Next(from)
		assert.Equal(t, time.Date(2026, 1, 7, 19, 30, 0, 0, time.UTC), next)
	})

	t.Run("next day when the slot has passed", func(t *testing.T) {
		digest := MustParseCronExpression("30 18 * * *")
		next := digest.Next(from)
		assert.Equal(t, time.Date(2026, 1, 8, 18, 30, 0, 0, time.UTC), next)
	})

	t.Run("strictly after the reference minute", func(t *testing.T) {
		everyMinute := MustParseCronExpression("* * * * *")
		next := everyMinute.Next(from)
		assert.Equal(t, from.Add(time.Minute), next)
	})

	t.Run("skips to the matching weekday", func(t *testing.T) {
		saturday := MustParseCronExpression("0 10 * * 6")
		next := saturday.Next(from)
		assert.Equal(t, time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC), next)
		assert.Equal(t, time.Saturday, next.Weekday())
	})
}

func TestMustParseCronExpressionPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParseCronExpression("not a cron spec")
	})
}

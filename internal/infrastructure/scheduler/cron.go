package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CronExpression is a parsed 5-field cron spec: minute, hour,
// day-of-month, month, day-of-week. The parent digest uses one to run
// at a fixed local time every evening.
//
// Supported field syntax: "*", single values, ranges (n-m), lists
// (n,m,o) and steps (*/n, n-m/s).
type CronExpression struct {
	raw      string
	minutes  []int // 0-59
	hours    []int // 0-23
	days     []int // 1-31
	months   []int // 1-12
	weekdays []int // 0-6, Sunday = 0
}

// ParseCronExpression parses expr or reports which field is invalid.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	specs := []struct {
		name     string
		min, max int
		dest     *[]int
	}{
		{"minute", 0, 59, nil},
		{"hour", 0, 23, nil},
		{"day", 1, 31, nil},
		{"month", 1, 12, nil},
		{"weekday", 0, 6, nil},
	}

	ce := &CronExpression{raw: expr}
	specs[0].dest = &ce.minutes
	specs[1].dest = &ce.hours
	specs[2].dest = &ce.days
	specs[3].dest = &ce.months
	specs[4].dest = &ce.weekdays

	for i, spec := range specs {
		values, err := parseCronField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dest = values
	}

	return ce, nil
}

// MustParseCronExpression panics on a bad expression. For expressions
// assembled from validated config values.
func MustParseCronExpression(expr string) *CronExpression {
	ce, err := ParseCronExpression(expr)
	if err != nil {
		panic(fmt.Sprintf("invalid cron expression %q: %v", expr, err))
	}
	return ce
}

// parseCronField expands one field into its sorted value set.
func parseCronField(field string, min, max int) ([]int, error) {
	switch {
	case field == "*":
		values := make([]int, 0, max-min+1)
		for v := min; v <= max; v++ {
			values = append(values, v)
		}
		return values, nil

	case strings.Contains(field, "/"):
		return parseCronStep(field, min, max)

	case strings.Contains(field, "-"):
		return parseCronRange(field, min, max)

	case strings.Contains(field, ","):
		return parseCronList(field, min, max)
	}

	v, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %s", field)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
	}
	return []int{v}, nil
}

func parseCronStep(field string, min, max int) ([]int, error) {
	base, stepStr, _ := strings.Cut(field, "/")
	step, err := strconv.Atoi(stepStr)
	if err != nil || step <= 0 {
		return nil, fmt.Errorf("invalid step value: %s", stepStr)
	}

	start, end := min, max
	switch {
	case base == "*":
	case strings.Contains(base, "-"):
		lo, hi, _ := strings.Cut(base, "-")
		start, _ = strconv.Atoi(lo)
		end, _ = strconv.Atoi(hi)
	default:
		start, _ = strconv.Atoi(base)
	}

	var values []int
	for v := start; v <= end; v += step {
		if v >= min && v <= max {
			values = append(values, v)
		}
	}
	return values, nil
}

func parseCronRange(field string, min, max int) ([]int, error) {
	lo, hi, ok := strings.Cut(field, "-")
	if !ok {
		return nil, fmt.Errorf("invalid range format: %s", field)
	}
	start, err := strconv.Atoi(lo)
	if err != nil {
		return nil, fmt.Errorf("invalid range start: %s", lo)
	}
	end, err := strconv.Atoi(hi)
	if err != nil {
		return nil, fmt.Errorf("invalid range end: %s", hi)
	}
	if start > end {
		return nil, fmt.Errorf("inverted range: %s", field)
	}
	if start < min || end > max {
		return nil, fmt.Errorf("range out of bounds [%d-%d]: %s", min, max, field)
	}

	values := make([]int, 0, end-start+1)
	for v := start; v <= end; v++ {
		values = append(values, v)
	}
	return values, nil
}

func parseCronList(field string, min, max int) ([]int, error) {
	var values []int
	for _, part := range strings.Split(field, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid list value: %s", part)
		}
		if v < min || v > max {
			return nil, fmt.Errorf("list value out of range [%d-%d]: %d", min, max, v)
		}
		values = append(values, v)
	}
	sort.Ints(values)
	return values, nil
}

// String returns the raw expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first matching minute strictly after t. It scans
// minute by minute, bounded at one year so a contradictory expression
// (Feb 30) returns the zero time instead of spinning.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Add(time.Minute).Truncate(time.Minute)

	const maxMinutes = 366 * 24 * 60
	for i := 0; i < maxMinutes; i++ {
		if ce.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

func (ce *CronExpression) matches(t time.Time) bool {
	return containsInt(ce.minutes, t.Minute()) &&
		containsInt(ce.hours, t.Hour()) &&
		containsInt(ce.days, t.Day()) &&
		containsInt(ce.months, int(t.Month())) &&
		containsInt(ce.weekdays, int(t.Weekday()))
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

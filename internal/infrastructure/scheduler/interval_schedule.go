package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires a fixed duration after the previous run.
// The catalog cache warmer runs on one of these.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule builds a schedule with the given interval.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns t plus the interval.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in cron's @every notation.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}

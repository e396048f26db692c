package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires at a fixed period after each run. The expiry
// sweeper runs on one of these: every cycle starts Interval after the
// previous one, with no jitter and no backoff on failure.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a schedule with the given period.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next run time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the schedule in "@every <period>" form.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

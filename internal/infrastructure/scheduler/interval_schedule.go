package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires a fixed duration after the previous run. The
// prediction refresh and leaderboard rebuild jobs use it because they only
// need a steady cadence, not a calendar boundary; периодические сбросы
// (неделя, месяц) регистрируются через CronExpression.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule builds a schedule with the given cadence.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{
		Interval: interval,
	}
}

// Next offsets from the completion time of the previous run, so a slow job
// drifts rather than piling up overlapping executions.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule for registration logs.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

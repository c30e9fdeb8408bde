package query

import (
	"time"

	"github.com/robfig/cron/v3"
)

// TimePlan expands a validated query variant into the ordered list of
// probe departure timestamps.
type TimePlan interface {
	ProbeDates(now time.Time) []time.Time
}

// ExplicitDeparture probes a fixed departure timestamp plus the same
// weekday/time for each following week inside the horizon.
type ExplicitDeparture struct {
	Timestamp  time.Time
	WeeksAhead int
}

func (p ExplicitDeparture) ProbeDates(now time.Time) []time.Time {
	dates := make([]time.Time, 0, p.WeeksAhead+1)
	for week := 0; week <= p.WeeksAhead; week++ {
		dates = append(dates, p.Timestamp.Add(time.Duration(week)*7*24*time.Hour))
	}
	return dates
}

// RecurringSchedule probes the next Count occurrences of a cron-style
// schedule, starting strictly after now plus SkipWeeks weeks.
type RecurringSchedule struct {
	schedule  cron.Schedule
	Count     int
	SkipWeeks int
}

func (p RecurringSchedule) ProbeDates(now time.Time) []time.Time {
	start := now.Add(time.Duration(p.SkipWeeks) * 7 * 24 * time.Hour)

	dates := make([]time.Time, 0, p.Count)
	next := start
	for i := 0; i < p.Count; i++ {
		next = p.schedule.Next(next)
		if next.IsZero() {
			break
		}
		dates = append(dates, next)
	}
	return dates
}

func parseSchedule(expr string) (cron.Schedule, error) {
	return cron.ParseStandard(expr)
}

package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule defines when a recurring job should run next.
type Schedule interface {
	// Next returns the next run time strictly after the given time.
	Next(after time.Time) time.Time
}

type everySchedule struct {
	interval time.Duration
}

func (s everySchedule) Next(after time.Time) time.Time {
	return after.Add(s.interval)
}

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return everySchedule{interval: d}
}

type dailySchedule struct {
	hour   int
	minute int
}

func (s dailySchedule) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, s.minute, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return dailySchedule{hour: hour, minute: minute}
}

type weeklySchedule struct {
	day    time.Weekday
	hour   int
	minute int
}

func (s weeklySchedule) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, s.minute, 0, 0, after.Location())
	daysAhead := (int(s.day) - int(after.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return weeklySchedule{day: day, hour: hour, minute: minute}
}

type cronSchedule struct {
	inner cron.Schedule
}

func (s cronSchedule) Next(after time.Time) time.Time {
	return s.inner.Next(after)
}

// Cron creates a schedule from a standard 5-field cron expression.
// Panics on an invalid expression; schedules are declared at startup where
// a bad expression is a programming error.
func Cron(expr string) Schedule {
	parsed, err := cron.ParseStandard(expr)
	if err != nil {
		panic(fmt.Sprintf("jobs: invalid cron expression %q: %v", expr, err))
	}
	return cronSchedule{inner: parsed}
}

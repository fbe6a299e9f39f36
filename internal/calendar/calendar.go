// Package calendar decides whether a recurrence has an occurrence on a given day.
//
// Every function is pure. Dates are evaluated in the location carried by the
// supplied time, so callers control what "today" means by choosing that location.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/models"
)

// ErrMalformedSchedule is returned by Validate when the schedule fields required by
// the interval are absent or out of range.
var ErrMalformedSchedule = errors.New("malformed schedule")

// IsDue reports whether now falls on an occurrence of the given schedule.
// Malformed schedules are never due.
func IsDue(interval models.Interval, schedule models.Schedule, now time.Time) bool {
	if Validate(interval, schedule) != nil {
		return false
	}

	switch interval {
	case models.IntervalDaily:
		return true
	case models.IntervalWeekly:
		day, _ := parseWeekday(schedule.Weekday)
		return now.Weekday() == day
	case models.IntervalMonthly:
		target := ResolveMonthlyDate(now.Year(), now.Month(), schedule.Day, now.Location())
		return SameDay(target, now)
	case models.IntervalYearly:
		// Feb 29 targets are not clamped and stay silent in non-leap years.
		return int(now.Month()) == schedule.Month && now.Day() == schedule.Day
	}
	return false
}

// Validate checks that the schedule carries the fields its interval needs.
func Validate(interval models.Interval, schedule models.Schedule) error {
	switch interval {
	case models.IntervalDaily:
		return nil
	case models.IntervalWeekly:
		if _, ok := parseWeekday(schedule.Weekday); !ok {
			return fmt.Errorf("%w: weekday %q", ErrMalformedSchedule, schedule.Weekday)
		}
		return nil
	case models.IntervalMonthly:
		if schedule.Day < 1 || schedule.Day > 31 {
			return fmt.Errorf("%w: day of month %d", ErrMalformedSchedule, schedule.Day)
		}
		return nil
	case models.IntervalYearly:
		if schedule.Month < 1 || schedule.Month > 12 {
			return fmt.Errorf("%w: month %d", ErrMalformedSchedule, schedule.Month)
		}
		// 2000 is a leap year, so Feb 29 is accepted here.
		if schedule.Day < 1 || schedule.Day > DaysIn(2000, time.Month(schedule.Month)) {
			return fmt.Errorf("%w: day %d of month %d", ErrMalformedSchedule, schedule.Day, schedule.Month)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown interval %q", ErrMalformedSchedule, interval)
}

// ResolveMonthlyDate returns the occurrence date for day-of-month in the given
// month. Days past the end of the month clamp to its last day, so a day=31
// schedule fires on Feb 28 (or 29) and Apr 30.
func ResolveMonthlyDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return 0, false
}

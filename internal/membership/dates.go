package membership

import (
	"fmt"
	"time"
)

const (
	UnitDays   = "days"
	UnitMonths = "months"
)

// DateOf drops the time of day, keeping t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves n calendar months forward, clamping to the last day of the
// target month: Jan 31 + 1 month is Feb 29 in a leap year.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := DateOf(t).Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// AddDuration applies a positive amount of days or months.
func AddDuration(t time.Time, amount int, unit string) (time.Time, error) {
	switch unit {
	case UnitDays:
		return AddDays(t, amount), nil
	case UnitMonths:
		return AddMonths(t, amount), nil
	}
	return time.Time{}, fmt.Errorf("unknown duration unit %q", unit)
}

// DaysBetween counts whole calendar days from one date to another, ignoring
// time of day.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

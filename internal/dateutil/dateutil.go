// Package dateutil holds the calendar-day helpers shared by the entry
// and chart code. Dates travel as YYYY-MM-DD strings, months as YYYY-MM.
package dateutil

import (
	"fmt"
	"time"
)

// EditableWindowDays is how far back an entry may still be edited.
const EditableWindowDays = 5

// Messages returned by ValidateEditableDate.
const (
	MsgFutureDate = "Cannot select future dates"
	MsgTooOld     = "Cannot edit entries older than 5 days"
)

// ValidateEditableDate reports whether d falls inside the editable
// window [today-5d, today]. The comparison is performed on calendar-day
// granularity: each side is reduced to its own calendar components and
// rebuilt in UTC, so neither the hour of day nor a zone mismatch between
// the parsed date and the server clock shifts the result.
func ValidateEditableDate(d, today time.Time) (bool, string) {
	day := truncateToDay(d)
	cur := truncateToDay(today)

	if day.After(cur) {
		return false, MsgFutureDate
	}
	if day.Before(cur.AddDate(0, 0, -EditableWindowDays)) {
		return false, MsgTooOld
	}
	return true, ""
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse("2006-01", s)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// CurrentMonth renders t's month as YYYY-MM.
func CurrentMonth(t time.Time) string {
	return t.Format("2006-01")
}

// IsToday reports whether the date string names today's calendar date.
func IsToday(dateStr string, now time.Time) bool {
	return dateStr == FormatDate(now)
}

// DaysInMonth returns the day numbers 1..N of the given YYYY-MM month.
func DaysInMonth(month string) ([]int, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	// Day 0 of the next month is the last day of this one.
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	days := make([]int, last)
	for i := range days {
		days[i] = i + 1
	}
	return days, nil
}

// DateKey builds the YYYY-MM-DD key for a day of the given month.
func DateKey(month string, day int) string {
	return fmt.Sprintf("%s-%02d", month, day)
}

// MonthRange returns the first and last date keys of a month, for the
// inclusive string-range query over entry dates.
func MonthRange(month string) (first, last string, err error) {
	days, err := DaysInMonth(month)
	if err != nil {
		return "", "", err
	}
	return DateKey(month, 1), DateKey(month, days[len(days)-1]), nil
}

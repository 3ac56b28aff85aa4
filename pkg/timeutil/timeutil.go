// Package timeutil provides calendar-day utilities for EduPulse Insights.
// Streaks, login days, and point windows are all defined over whole UTC days,
// so every day-level comparison in the codebase goes through this package.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00) in UTC.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// StartOfMonth returns the start of the calendar month in UTC.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from earlier to later.
// The result is negative when later precedes earlier.
func DaysBetween(earlier, later time.Time) int {
	a := StartOfDay(earlier)
	b := StartOfDay(later)
	return int(b.Sub(a).Hours() / 24)
}

// DaysSince returns the number of whole calendar days since t.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := t1.UTC(), t2.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsConsecutiveDay checks if t2 falls on the day immediately after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return IsSameDay(t1.UTC().AddDate(0, 0, 1), t2)
}

// IsToday checks if the given time is today in UTC.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatMonth is the month bucket format (YYYY-MM).
	FormatMonth = "2006-01"
)

// DateKey formats a time as a UTC date key (YYYY-MM-DD).
func DateKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// WeekKey returns the ISO week bucket key for a time (e.g. "2026-W35").
// Weekly point counters are scoped to this key.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey returns the calendar month bucket key for a time (e.g. "2026-09").
// Monthly point counters are scoped to this key.
func MonthKey(t time.Time) string {
	return t.UTC().Format(FormatMonth)
}

// SameWeek checks if two times fall in the same ISO week.
func SameWeek(t1, t2 time.Time) bool {
	return WeekKey(t1) == WeekKey(t2)
}

// SameMonth checks if two times fall in the same calendar month.
func SameMonth(t1, t2 time.Time) bool {
	return MonthKey(t1) == MonthKey(t2)
}

// NextWeekBoundary returns the first instant of the next ISO week after t.
func NextWeekBoundary(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 7)
}

// NextMonthBoundary returns the first instant of the next calendar month after t.
func NextMonthBoundary(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0)
}

// ParseDate parses a date string (YYYY-MM-DD) as a UTC time.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

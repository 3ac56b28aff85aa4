package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 9, 1, 23, 50, 0, 0, time.UTC)
	b := time.Date(2026, 9, 2, 0, 10, 0, 0, time.UTC)

	// Clock difference is 20 minutes, calendar difference is one day.
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))

	assert.Equal(t, 31, DaysBetween(
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	))
}

func TestDaysBetween_TimezoneNormalized(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*3600)

	// 02:00 in UTC+5 is 21:00 the previous UTC day.
	local := time.Date(2026, 9, 2, 2, 0, 0, 0, almaty)
	utc := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(utc, local))
}

func TestStartOfWeek_ISOMonday(t *testing.T) {
	// 2026-09-01 is a Tuesday.
	tuesday := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, StartOfWeek(tuesday))

	// Sunday belongs to the week that started the previous Monday.
	sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, StartOfWeek(sunday))

	assert.Equal(t, monday, StartOfWeek(monday))
}

func TestWeekAndMonthKeys(t *testing.T) {
	ts := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-W36", WeekKey(ts))
	assert.Equal(t, "2026-09", MonthKey(ts))

	// Week numbers pad to two digits.
	jan := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-W02", WeekKey(jan))
}

func TestSameWeekAndMonth(t *testing.T) {
	mon := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2026, 9, 6, 23, 59, 0, 0, time.UTC)
	nextMon := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameWeek(mon, sun))
	assert.False(t, SameWeek(sun, nextMon))

	assert.True(t, SameMonth(sun, nextMon))
	assert.False(t, SameMonth(mon, sun))
}

func TestIsConsecutiveDay(t *testing.T) {
	d1 := time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 9, 3, 1, 0, 0, 0, time.UTC)

	assert.True(t, IsConsecutiveDay(d1, d2))
	assert.False(t, IsConsecutiveDay(d1, d3))
	assert.False(t, IsConsecutiveDay(d2, d1))
}

func TestBoundaries(t *testing.T) {
	ts := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), NextWeekBoundary(ts))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), NextMonthBoundary(ts))

	// Year rollover.
	dec := time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), NextMonthBoundary(dec))
}

func TestParseDate(t *testing.T) {
	ts, err := ParseDate("2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), ts)

	_, err = ParseDate("01.09.2026")
	assert.Error(t, err)
}

func TestStartAndEndOfDay(t *testing.T) {
	ts := time.Date(2026, 9, 1, 18, 45, 12, 500, time.UTC)

	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	assert.Equal(t, time.Date(2026, 9, 1, 23, 59, 59, 999999999, time.UTC), EndOfDay(ts))
}

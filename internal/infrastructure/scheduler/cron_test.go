package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Presets(t *testing.T) {
	for _, expr := range []string{Every15Minutes, EveryHour, EveryDayMidnight, EveryMonday, FirstOfMonth} {
		ce, err := ParseCronExpression(expr)
		require.NoError(t, err, expr)
		assert.Equal(t, expr, ce.String())
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	cases := []string{
		"",
		"* * * *",          // 4 fields
		"* * * * * *",      // 6 fields
		"60 * * * *",       // minute out of range
		"* 24 * * *",       // hour out of range
		"*/0 * * * *",      // zero step
		"abc * * * *",      // not a number
	}
	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestCronNext_Every15Minutes(t *testing.T) {
	ce := MustParseCronExpression(Every15Minutes)

	after := time.Date(2026, 9, 1, 10, 7, 30, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 15, 0, 0, time.UTC), ce.Next(after))

	// Sitting exactly on a slot advances to the next one.
	onSlot := time.Date(2026, 9, 1, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC), ce.Next(onSlot))

	// Hour rollover.
	late := time.Date(2026, 9, 1, 10, 46, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC), ce.Next(late))
}

func TestCronNext_EveryMonday(t *testing.T) {
	ce := MustParseCronExpression(EveryMonday)

	// 2026-09-01 is a Tuesday; the next Monday midnight is 2026-09-07.
	after := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), ce.Next(after))

	// From Monday midnight itself the next run is a week later.
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), ce.Next(monday))
}

func TestCronNext_FirstOfMonth(t *testing.T) {
	ce := MustParseCronExpression(FirstOfMonth)

	after := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), ce.Next(after))

	// Year rollover.
	dec := time.Date(2026, 12, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), ce.Next(dec))
}

func TestCronNext_ListAndRange(t *testing.T) {
	ce, err := ParseCronExpression("0 9,18 * * *")
	require.NoError(t, err)

	morning := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), ce.Next(morning))

	afternoon := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC), ce.Next(afternoon))

	ce, err = ParseCronExpression("30 9-11 * * *")
	require.NoError(t, err)
	assert.Equal(t,
		time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
		ce.Next(time.Date(2026, 9, 1, 9, 45, 0, 0, time.UTC)))
}

func TestMustParseCronExpression_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseCronExpression("not a cron") })
	assert.NotPanics(t, func() { MustParseCronExpression(EveryDayMidnight) })
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))
	assert.Equal(t, "@every 15m0s", s.String())
}

package workcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWeekend(t *testing.T) {
	assert.False(t, IsWeekend(date(2025, time.March, 7)))  // Friday
	assert.True(t, IsWeekend(date(2025, time.March, 8)))   // Saturday
	assert.True(t, IsWeekend(date(2025, time.March, 9)))   // Sunday
	assert.False(t, IsWeekend(date(2025, time.March, 10))) // Monday
}

func TestAddBusinessDaysSkipsWeekends(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"monday plus three", date(2025, time.March, 10), 3, date(2025, time.March, 13)},
		{"friday plus three crosses weekend", date(2025, time.March, 7), 3, date(2025, time.March, 12)},
		{"thursday plus two crosses weekend", date(2025, time.March, 6), 2, date(2025, time.March, 10)},
		{"zero returns start", date(2025, time.March, 10), 0, date(2025, time.March, 10)},
		{"saturday start counts from monday", date(2025, time.March, 8), 1, date(2025, time.March, 10)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddBusinessDays(tc.start, tc.n))
		})
	}
}

func TestCountBusinessDaysExcludesStartIncludesEnd(t *testing.T) {
	// Monday through Thursday of the same week: Tue, Wed, Thu.
	assert.Equal(t, 3, CountBusinessDays(date(2025, time.March, 10), date(2025, time.March, 13)))

	// Friday through next Wednesday: Mon, Tue, Wed.
	assert.Equal(t, 3, CountBusinessDays(date(2025, time.March, 7), date(2025, time.March, 12)))

	// End before start yields zero, never negative.
	assert.Equal(t, 0, CountBusinessDays(date(2025, time.March, 13), date(2025, time.March, 10)))
	assert.Equal(t, 0, CountBusinessDays(date(2025, time.March, 10), date(2025, time.March, 10)))
}

func TestBusinessDayRoundTrip(t *testing.T) {
	starts := []time.Time{
		date(2025, time.March, 7),  // Friday
		date(2025, time.March, 10), // Monday
		date(2025, time.March, 12), // Wednesday
	}

	for _, start := range starts {
		for n := 1; n <= 15; n++ {
			end := AddBusinessDays(start, n)
			require.Equal(t, n, CountBusinessDays(start, end),
				"start=%s n=%d end=%s", start.Format(DateLayout), n, end.Format(DateLayout))
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{510, "08:30"},
		{480, "08:00"},
		{1440, "24:00"},
		{65, "01:05"},
		{-30, "00:00"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatMinutes(tc.minutes))
	}
}

func TestParseClockRoundTrip(t *testing.T) {
	for _, raw := range []string{"00:00", "07:00", "08:30", "11:59", "23:45"} {
		minutes, err := ParseClock(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, FormatMinutes(minutes))
	}

	_, err := ParseClock("25:99")
	assert.Error(t, err)
}

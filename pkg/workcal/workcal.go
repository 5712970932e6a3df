// Package workcal provides working-calendar arithmetic: weekend detection,
// business-day counting and clock-minute formatting used by attendance and
// leave processing.
package workcal

import (
	"fmt"
	"time"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

// MonthLayout is the canonical wire format for calendar months.
const MonthLayout = "2006-01"

// IsWeekend reports whether d falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// AddBusinessDays returns the date reached by advancing n business days from
// start. Counting begins on the day after start, so the start day itself never
// consumes a unit. n <= 0 returns start unchanged.
func AddBusinessDays(start time.Time, n int) time.Time {
	d := start
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if !IsWeekend(d) {
			added++
		}
	}
	return d
}

// CountBusinessDays counts the business days in (start, end]: the start day is
// excluded, the end day included. Returns 0 when end is not after start.
func CountBusinessDays(start, end time.Time) int {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if !end.After(start) {
		return 0
	}

	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			count++
		}
	}
	return count
}

// FormatMinutes renders a minute total as zero-padded HH:MM. Negative values
// are clamped to "00:00".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock converts an HH:MM clock string into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// MinutesOfDay returns the minutes elapsed since midnight for t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

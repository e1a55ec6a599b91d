package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical wire and storage format for dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day. The calendar day is
// taken in t's own location, so a local 23:30 stays on the same date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the day offset days after d.
func AddDays(d time.Time, days int) time.Time {
	return Day(d).AddDate(0, 0, days)
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DaySpan returns length consecutive days starting at start.
func DaySpan(start time.Time, length int) []time.Time {
	if length <= 0 {
		return nil
	}
	days := make([]time.Time, length)
	for i := range days {
		days[i] = AddDays(start, i)
	}
	return days
}

package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly strips the time-of-day from t, keeping its calendar date as a
// UTC-midnight value. The planner treats dates as naive calendar days;
// normalizing to UTC midnight keeps comparisons and unique indexes exact.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a date-only value by whole calendar days.
func AddDays(date time.Time, days int) time.Time {
	return DateOnly(date.AddDate(0, 0, days))
}

// FormatDate renders a date-only value as YYYY-MM-DD.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a date-only value.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOnly(t), nil
}

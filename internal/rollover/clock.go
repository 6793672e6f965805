// Package rollover implements the daily task-rollover engine: once per
// user per day, every still-open task scheduled for yesterday moves
// forward to today, with an audit record per move keyed so that no task
// can roll onto the same day twice.
package rollover

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarbeev/planner/internal/model"
)

// ErrUnknownTimezone marks an invalid IANA timezone identifier. It is a
// configuration problem of the affected user, not a storage failure.
var ErrUnknownTimezone = errors.New("unknown timezone")

// ResolveLocation loads an IANA timezone. An empty identifier means UTC.
func ResolveLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, timezone)
	}
	return loc, nil
}

// LocalMidnight returns the calendar day it currently is in the given
// timezone, as a date-only value. The wall-clock date is read in the
// user's zone and re-anchored at UTC midnight, so downstream comparisons
// treat it as a naive calendar day.
func LocalMidnight(timezone string, now time.Time) (time.Time, error) {
	loc, err := ResolveLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}

// TimeOfDay returns the wall-clock hour and minute in the given timezone.
func TimeOfDay(timezone string, now time.Time) (hour, minute int, err error) {
	loc, err := ResolveLocation(timezone)
	if err != nil {
		return 0, 0, err
	}
	local := now.In(loc)
	return local.Hour(), local.Minute(), nil
}

// WithinRolloverWindow reports whether now falls in the first ten
// minutes after local midnight (00:00-00:09). A trigger outside the
// window still runs rollover; the window only signals whether the daily
// trigger fired on time.
func WithinRolloverWindow(timezone string, now time.Time) (bool, error) {
	hour, minute, err := TimeOfDay(timezone, now)
	if err != nil {
		return false, err
	}
	return hour == 0 && minute < 10, nil
}

// yesterdayOf is the calendar day before a date-only value.
func yesterdayOf(date time.Time) time.Time {
	return model.AddDays(date, -1)
}

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskwave-api/internal/constants"
)

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayRange returns the half-open interval [start, end) covering t's calendar day in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// DayOnOrAfter reports whether t's calendar day is the same as or later than ref's.
func DayOnOrAfter(t, ref time.Time, loc *time.Location) bool {
	return !StartOfDay(t, loc).Before(StartOfDay(ref, loc))
}

// ParseDateTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
// Plain dates are interpreted as midnight in loc.
func ParseDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(constants.DateLayout, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

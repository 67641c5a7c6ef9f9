package services

import (
	"time"

	"github.com/yukikurage/taskwave-api/internal/utils"
)

// Calendar decides what "today" means for due dates and focus sessions.
type Calendar struct {
	Now func() time.Time
	Loc *time.Location
}

// NewCalendar returns a Calendar on the wall clock in loc.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Now: time.Now, Loc: loc}
}

// StartOfToday returns midnight of the current day.
func (c Calendar) StartOfToday() time.Time {
	return utils.StartOfDay(c.Now(), c.Loc)
}

// IsToday reports whether t falls on the current day.
func (c Calendar) IsToday(t time.Time) bool {
	return utils.SameDay(t, c.Now(), c.Loc)
}

// IsTodayOrLater reports whether t falls on the current day or after it.
func (c Calendar) IsTodayOrLater(t time.Time) bool {
	return utils.DayOnOrAfter(t, c.Now(), c.Loc)
}

// Parse reads an RFC3339 timestamp or a plain date in the calendar zone.
func (c Calendar) Parse(value string) (time.Time, error) {
	return utils.ParseDateTime(value, c.Loc)
}

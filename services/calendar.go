package services

import (
	"time"

	"wellness-rewards-system/models"

	"github.com/jonboulle/clockwork"
)

// Calendar answers "what day is it" for the user's timezone.
type Calendar struct {
	Clock    clockwork.Clock
	Location *time.Location
}

func NewCalendar(clock clockwork.Clock, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{Clock: clock, Location: loc}
}

func (c *Calendar) Now() time.Time {
	return c.Clock.Now().In(c.Location)
}

func (c *Calendar) Today() models.Day {
	return models.DayOf(c.Now())
}

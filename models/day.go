package models

import (
	"fmt"
	"time"
)

// DayLayout is the storage and wire format of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day or zone, stored as YYYY-MM-DD.
// Lexical order of the string matches chronological order.
type Day string

// DayOf returns the calendar date of t in t's own location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("malformed day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Valid reports whether d is a well-formed date.
func (d Day) Valid() bool {
	_, err := time.Parse(DayLayout, string(d))
	return err == nil
}

// Time returns midnight UTC of d. Invalid days yield the zero time.
func (d Day) Time() time.Time {
	t, _ := time.Parse(DayLayout, string(d))
	return t
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

func (d Day) Before(other Day) bool { return d < other }

func (d Day) String() string { return string(d) }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Day) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}

// Package dates centralizes calendar-date handling. Every store compares
// calendar-date strings computed in a single fixed timezone, never epoch
// timestamps, so a learner near midnight sees consistent "today" across
// progress, review, streak and daily-session state.
package dates

import "time"

// Timezone is the fixed zone for all calendar-date math.
const Timezone = "Asia/Ho_Chi_Minh"

// DateKey is the layout for calendar-date strings, e.g. "2026-02-19".
const DateKey = "2006-01-02"

// Clock provides the current time and calendar dates in the fixed zone.
type Clock interface {
	Now() time.Time
	Today() string
	Yesterday() string
}

type clock struct {
	loc *time.Location
}

// NewClock returns a Clock pinned to the fixed timezone. If the zone
// database is unavailable it falls back to a fixed UTC+7 offset.
func NewClock() Clock {
	return &clock{loc: Location()}
}

// Location resolves the fixed timezone, falling back to a fixed UTC+7
// offset when the zone database is unavailable.
func Location() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		loc = time.FixedZone("ICT", 7*3600)
	}
	return loc
}

func (c *clock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *clock) Today() string {
	return c.Now().Format(DateKey)
}

func (c *clock) Yesterday() string {
	return c.Now().AddDate(0, 0, -1).Format(DateKey)
}

// FormatMilli renders an epoch-millisecond timestamp as RFC 3339 in the
// fixed timezone. Zero renders as the empty string.
func FormatMilli(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).In(Location()).Format(time.RFC3339)
}

// AddDays returns the date key days after dateKey. Malformed keys return
// the input unchanged so a corrupt stored date never cascades into a panic.
func AddDays(dateKey string, days int) string {
	t, err := time.Parse(DateKey, dateKey)
	if err != nil {
		return dateKey
	}
	return t.AddDate(0, 0, days).Format(DateKey)
}

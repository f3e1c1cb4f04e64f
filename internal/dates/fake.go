package dates

import "time"

// Fake is a Clock with a settable current day, for tests that cross
// calendar-date boundaries.
type Fake struct {
	Day  string
	Time time.Time
}

// NewFake creates a Fake pinned to the given date key at noon.
func NewFake(day string) *Fake {
	t, _ := time.Parse(DateKey, day)
	return &Fake{Day: day, Time: t.Add(12 * time.Hour)}
}

func (f *Fake) Now() time.Time { return f.Time }

func (f *Fake) Today() string { return f.Day }

func (f *Fake) Yesterday() string { return AddDays(f.Day, -1) }

// Advance moves the fake clock forward by the given number of days.
func (f *Fake) Advance(days int) {
	f.Day = AddDays(f.Day, days)
	f.Time = f.Time.AddDate(0, 0, days)
}

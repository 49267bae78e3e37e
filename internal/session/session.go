// Package session segments intraday observations into overnight trading
// sessions, rebases every session to zero at its open and reduces the
// rebased sessions to an average curve.
package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window describes the overnight trading session: it opens at OpenHour on
// day D and closes at CloseHour on day D+1. Hours in [CloseHour, OpenHour)
// are outside every session.
type Window struct {
	OpenHour  int
	CloseHour int
}

// DefaultWindow is the 6 PM to 4 PM treasury futures session.
var DefaultWindow = Window{OpenHour: 18, CloseHour: 16}

// Contains reports whether t falls inside a session.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.OpenHour || h < w.CloseHour
}

// SessionDate is the calendar date of t, or the previous date when t is
// before the open hour.
func (w Window) SessionDate(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if t.Hour() < w.OpenHour {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Open returns the session start instant for a session date.
func (w Window) Open(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), w.OpenHour, 0, 0, 0, date.Location())
}

// Length is the duration from open to close.
func (w Window) Length() time.Duration {
	return time.Duration(24-w.OpenHour+w.CloseHour) * time.Hour
}

// Observation is one timestamped price. Label, when set, names the session
// explicitly instead of deriving it from the session date.
type Observation struct {
	Time  time.Time
	Price decimal.Decimal
	Label string
}

// Point is an observation placed inside its session.
type Point struct {
	Session     string
	Label       string
	SessionDate time.Time
	Time        time.Time
	Offset      time.Duration
	Price       decimal.Decimal
	Yield       decimal.Decimal
}

// MinutesSinceOpen returns Offset in minutes.
func (p Point) MinutesSinceOpen() float64 {
	return p.Offset.Minutes()
}

// AveragePoint is one point of the cross-session average curve.
type AveragePoint struct {
	Offset   time.Duration
	Yield    decimal.Decimal
	Sessions int
}

// MinutesSinceOpen returns Offset in minutes.
func (a AveragePoint) MinutesSinceOpen() float64 {
	return a.Offset.Minutes()
}

// wallClock drops the zone so differences count clock minutes, not elapsed
// time. A session spanning a DST change still runs 0 to 1320 minutes.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Segment assigns every observation inside the window to its session and
// computes its offset from the session open. Observations in the gap
// between close and open are dropped; input order is preserved.
func Segment(obs []Observation, w Window) []Point {
	out := make([]Point, 0, len(obs))
	for _, o := range obs {
		if !w.Contains(o.Time) {
			continue
		}

		date := w.SessionDate(o.Time)
		offset := wallClock(o.Time).Sub(wallClock(w.Open(date)))

		key, label := o.Label, o.Label
		if key == "" {
			key = date.Format(time.DateOnly)
			label = date.Format("Jan 02")
		}

		out = append(out, Point{
			Session:     key,
			Label:       label,
			SessionDate: date,
			Time:        o.Time,
			Offset:      offset,
			Price:       o.Price,
		})
	}
	return out
}

// Package period generates the ordered sets of calendar days that the
// aggregation engine buckets transactions into.
//
// Every generator takes the reference instant explicitly; nothing in this
// package reads the system clock. "Today" is the calendar date of that
// instant in its own location, so callers pass time.Now() (local time) in
// production and a fixed instant in tests.
package period

import (
	"time"

	"fintrack/internal/core"
)

// Window is an ordered set of calendar days, oldest first.
type Window []core.Date

// Keys returns the YYYY-MM-DD keys of the window in order.
func (w Window) Keys() []string {
	keys := make([]string, len(w))
	for i, d := range w {
		keys[i] = d.Key()
	}
	return keys
}

// Contains reports whether d is one of the window's days.
func (w Window) Contains(d core.Date) bool {
	key := d.Key()
	for _, day := range w {
		if day.Key() == key {
			return true
		}
	}
	return false
}

// Trailing returns n consecutive days ending today (includeToday) or ending
// yesterday. n <= 0 yields an empty window.
func Trailing(now time.Time, n int, includeToday bool) Window {
	if n <= 0 {
		return Window{}
	}
	end := core.DateOf(now)
	if !includeToday {
		end = end.AddDays(-1)
	}
	w := make(Window, 0, n)
	for i := n - 1; i >= 0; i-- {
		w = append(w, end.AddDays(-i))
	}
	return w
}

// MondayOf returns the Monday starting the week that contains d. Sunday is
// the last day of its week, not the first.
func MondayOf(d core.Date) core.Date {
	offset := (int(d.Weekday()) + 6) % 7 // Mon=0 ... Sun=6
	return d.AddDays(-offset)
}

// Week returns the Monday-to-Sunday days of the week containing ref and of
// the week immediately before it.
func Week(ref time.Time) (this, last Window) {
	monday := MondayOf(core.DateOf(ref))
	prev := monday.AddDays(-7)
	this = make(Window, 7)
	last = make(Window, 7)
	for i := 0; i < 7; i++ {
		this[i] = monday.AddDays(i)
		last[i] = prev.AddDays(i)
	}
	return this, last
}

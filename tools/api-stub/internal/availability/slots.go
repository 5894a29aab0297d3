// Package availability computes free grooming start times.
package availability

import "time"

// Interval is a booked span. Start is inclusive, End exclusive.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Hours is the daily window appointments may occupy, as offsets from midnight.
type Hours struct {
	Open  time.Duration
	Close time.Duration
	Step  time.Duration
}

var DefaultHours = Hours{Open: 9 * time.Hour, Close: 17 * time.Hour, Step: 30 * time.Minute}

// Contains reports whether iv lies inside the window of its own calendar day in loc.
func (h Hours) Contains(iv Interval, loc *time.Location) bool {
	start := iv.Start.In(loc)
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	return !iv.Start.Before(midnight.Add(h.Open)) && !iv.End.After(midnight.Add(h.Close))
}

// ForDay lists the free start times on date's calendar day. The day is read from
// date's own fields, so UTC midnight of a date means that date in loc.
func (h Hours) ForDay(date time.Time, loc *time.Location, duration time.Duration, busy []Interval, now time.Time) []time.Time {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return Free(midnight.Add(h.Open), midnight.Add(h.Close), duration, h.Step, busy, now)
}

// Free returns the starts within [windowStart, windowEnd), stepping by step, at
// which duration fits without touching any busy interval. Starts before now are skipped.
func Free(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 || windowStart.Add(duration).After(windowEnd) {
		return nil
	}
	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		candidate := Interval{Start: t, End: t.Add(duration)}
		if !overlapsAny(candidate, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

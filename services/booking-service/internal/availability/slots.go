package availability

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// merge sorts busy intervals by start and coalesces overlapping or touching
// ones, dropping empty entries.
func merge(busy []Interval) []Interval {
	var in []Interval
	for _, b := range busy {
		if b.End.After(b.Start) {
			in = append(in, b)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })

	var out []Interval
	for _, b := range in {
		if len(out) > 0 && !b.Start.After(out[len(out)-1].End) {
			if b.End.After(out[len(out)-1].End) {
				out[len(out)-1].End = b.End
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

// Subtract removes the busy intervals from window and returns the remaining
// open sub-intervals ordered by start ascending.
func Subtract(window Interval, busy []Interval) []Interval {
	if !window.End.After(window.Start) {
		return nil
	}

	var open []Interval
	cur := window.Start
	for _, b := range merge(busy) {
		if !b.End.After(cur) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cur) {
			end := b.Start
			if end.After(window.End) {
				end = window.End
			}
			open = append(open, Interval{Start: cur, End: end})
		}
		if b.End.After(cur) {
			cur = b.End
		}
		if !cur.Before(window.End) {
			return open
		}
	}
	if cur.Before(window.End) {
		open = append(open, Interval{Start: cur, End: window.End})
	}
	return open
}

// Openings subtracts busy intervals from each working window and keeps the
// open sub-intervals long enough to hold a booking of the given duration.
// Windows are assumed non-overlapping and sorted; the result is ordered by
// start ascending.
func Openings(windows []Interval, busy []Interval, duration time.Duration) []Interval {
	if duration <= 0 {
		return nil
	}
	var out []Interval
	for _, w := range windows {
		for _, open := range Subtract(w, busy) {
			if open.Duration() >= duration {
				out = append(out, open)
			}
		}
	}
	return out
}

// SlotStarts enumerates bookable start times inside the open intervals on a
// fixed step grid. A start t is emitted only when [t, t+duration) fits
// entirely within its opening and t is not before now.
func SlotStarts(openings []Interval, duration, step time.Duration, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	var starts []time.Time
	for _, open := range openings {
		for t := open.Start; !t.Add(duration).After(open.End); t = t.Add(step) {
			if t.Before(now) {
				continue
			}
			starts = append(starts, t)
		}
	}
	return starts
}

package availability

import (
	"testing"
	"time"
)

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
}

func TestOpenings_SplitsAroundBusyInterval(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	windows := []Interval{{Start: at(day, 9, 0), End: at(day, 17, 0)}}
	busy := []Interval{{Start: at(day, 12, 0), End: at(day, 13, 0)}}

	openings := Openings(windows, busy, 30*time.Minute)
	if len(openings) != 2 {
		t.Fatalf("expected 2 openings, got %d: %+v", len(openings), openings)
	}
	if !openings[0].Start.Equal(at(day, 9, 0)) || !openings[0].End.Equal(at(day, 12, 0)) {
		t.Fatalf("unexpected first opening: %+v", openings[0])
	}
	if !openings[1].Start.Equal(at(day, 13, 0)) || !openings[1].End.Equal(at(day, 17, 0)) {
		t.Fatalf("unexpected second opening: %+v", openings[1])
	}
}

func TestOpenings_DropsTooShortGaps(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	windows := []Interval{{Start: at(day, 9, 0), End: at(day, 11, 0)}}
	// 15-minute gap between the busy blocks; too short for a 30-minute cut.
	busy := []Interval{
		{Start: at(day, 9, 30), End: at(day, 10, 0)},
		{Start: at(day, 10, 15), End: at(day, 10, 45)},
	}

	openings := Openings(windows, busy, 30*time.Minute)
	if len(openings) != 1 {
		t.Fatalf("expected 1 opening, got %d: %+v", len(openings), openings)
	}
	if !openings[0].Start.Equal(at(day, 9, 0)) || !openings[0].End.Equal(at(day, 9, 30)) {
		t.Fatalf("unexpected opening: %+v", openings[0])
	}
}

func TestSubtract_MergesOverlappingBusy(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 17, 0)}
	busy := []Interval{
		{Start: at(day, 12, 30), End: at(day, 14, 0)},
		{Start: at(day, 12, 0), End: at(day, 13, 0)},
	}

	open := Subtract(window, busy)
	if len(open) != 2 {
		t.Fatalf("expected 2 open intervals, got %d: %+v", len(open), open)
	}
	if !open[0].End.Equal(at(day, 12, 0)) || !open[1].Start.Equal(at(day, 14, 0)) {
		t.Fatalf("unexpected subtraction result: %+v", open)
	}
}

func TestSubtract_BusyCoversWholeWindow(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 12, 0)}
	busy := []Interval{{Start: at(day, 8, 0), End: at(day, 13, 0)}}

	if open := Subtract(window, busy); len(open) != 0 {
		t.Fatalf("expected no open intervals, got %+v", open)
	}
}

func TestSubtract_TouchingBusyDoesNotEatWindow(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	window := Interval{Start: at(day, 9, 0), End: at(day, 12, 0)}
	// Busy interval ends exactly at the window start: half-open, no overlap.
	busy := []Interval{{Start: at(day, 8, 0), End: at(day, 9, 0)}}

	open := Subtract(window, busy)
	if len(open) != 1 || !open[0].Start.Equal(at(day, 9, 0)) || !open[0].End.Equal(at(day, 12, 0)) {
		t.Fatalf("expected full window open, got %+v", open)
	}
}

func TestSlotStarts_StepGrid(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	openings := []Interval{{Start: at(day, 9, 0), End: at(day, 10, 0)}}

	starts := SlotStarts(openings, 30*time.Minute, 15*time.Minute, day)
	// 09:00, 09:15, 09:30 fit; 09:45+30m would overrun 10:00.
	if len(starts) != 3 {
		t.Fatalf("expected 3 starts, got %d: %v", len(starts), starts)
	}
	if !starts[2].Equal(at(day, 9, 30)) {
		t.Fatalf("expected last start 09:30, got %s", starts[2].Format(time.RFC3339))
	}
}

func TestSlotStarts_SkipsPast(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	openings := []Interval{{Start: at(day, 9, 0), End: at(day, 10, 0)}}

	now := at(day, 9, 20)
	starts := SlotStarts(openings, 15*time.Minute, 15*time.Minute, now)
	// 09:00 and 09:15 are in the past relative to now.
	if len(starts) != 2 {
		t.Fatalf("expected 2 starts, got %d: %v", len(starts), starts)
	}
	if !starts[0].Equal(at(day, 9, 30)) {
		t.Fatalf("expected first start 09:30, got %s", starts[0].Format(time.RFC3339))
	}
}

func TestSlotStarts_InvalidInputs(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	openings := []Interval{{Start: at(day, 9, 0), End: at(day, 10, 0)}}
	if got := SlotStarts(openings, 0, 15*time.Minute, day); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := SlotStarts(openings, 15*time.Minute, 0, day); got != nil {
		t.Fatalf("expected nil for zero step, got %v", got)
	}
}

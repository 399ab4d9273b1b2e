package availability

import (
	"testing"
	"time"
)

func clock(loc *time.Location, hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, loc)
}

func busyAt(loc *time.Location, spans ...[4]int) []BusyInterval {
	out := make([]BusyInterval, 0, len(spans))
	for _, s := range spans {
		out = append(out, BusyInterval{Start: clock(loc, s[0], s[1]), End: clock(loc, s[2], s[3])})
	}
	return out
}

type wantSlot struct {
	start, end  time.Time
	minutes     int
	granularity Granularity
}

func checkSlots(t *testing.T, got []FreeSlot, want []wantSlot) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if !g.Start.Equal(w.start) || !g.End.Equal(w.end) || g.DurationMinutes != w.minutes || g.Granularity != w.granularity {
			t.Errorf("slot %d = {%s %s %d %s}, want {%s %s %d %s}", i,
				g.Start.Format("15:04"), g.End.Format("15:04"), g.DurationMinutes, g.Granularity,
				w.start.Format("15:04"), w.end.Format("15:04"), w.minutes, w.granularity)
		}
	}
}

func TestDayFreeSlots(t *testing.T) {
	loc := time.UTC
	dayOpen, dayClose := clock(loc, 9, 0), clock(loc, 17, 0)

	tests := []struct {
		name string
		busy []BusyInterval
		min  time.Duration
		want []wantSlot
	}{
		{
			name: "no meetings covers the window",
			min:  time.Hour,
			want: []wantSlot{{dayOpen, dayClose, 480, Granularity60}},
		},
		{
			name: "meeting in the middle",
			busy: busyAt(loc, [4]int{12, 0, 13, 0}),
			min:  time.Hour,
			want: []wantSlot{
				{dayOpen, clock(loc, 12, 0), 180, Granularity60},
				{clock(loc, 13, 0), dayClose, 240, Granularity60},
			},
		},
		{
			name: "gap exactly the minimum is kept",
			busy: busyAt(loc, [4]int{9, 0, 10, 0}, [4]int{11, 0, 17, 0}),
			min:  time.Hour,
			want: []wantSlot{{clock(loc, 10, 0), clock(loc, 11, 0), 60, Granularity60}},
		},
		{
			name: "gap below the minimum is dropped",
			busy: busyAt(loc, [4]int{9, 0, 10, 0}, [4]int{10, 59, 17, 0}),
			min:  time.Hour,
		},
		{
			name: "fully booked",
			busy: busyAt(loc, [4]int{9, 0, 17, 0}),
			min:  30 * time.Minute,
		},
		{
			name: "trailing gap",
			busy: busyAt(loc, [4]int{9, 0, 16, 30}),
			min:  30 * time.Minute,
			want: []wantSlot{{clock(loc, 16, 30), dayClose, 30, Granularity60}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DayFreeSlots(dayOpen, dayClose, tt.busy, tt.min, Granularity60)
			checkSlots(t, got, tt.want)
		})
	}
}

func TestCombineDay(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("gaps of an hour or more are primary only", func(t *testing.T) {
		est := time.FixedZone("UTC-5", -5*60*60)
		busy := busyAt(est, [4]int{9, 0, 10, 0}, [4]int{14, 0, 15, 30})

		got := CombineDay(clock(est, 9, 0), clock(est, 17, 0), busy, cfg)
		checkSlots(t, got, []wantSlot{
			{clock(est, 10, 0), clock(est, 14, 0), 240, Granularity60},
			{clock(est, 15, 30), clock(est, 17, 0), 90, Granularity60},
		})
	})

	t.Run("meeting at window open", func(t *testing.T) {
		loc := time.UTC
		busy := busyAt(loc, [4]int{9, 0, 9, 45})

		got := CombineDay(clock(loc, 9, 0), clock(loc, 17, 0), busy, cfg)
		checkSlots(t, got, []wantSlot{
			{clock(loc, 9, 45), clock(loc, 17, 0), 435, Granularity60},
		})
	})

	t.Run("short gaps surface as secondary slots", func(t *testing.T) {
		loc := time.UTC
		busy := busyAt(loc, [4]int{9, 0, 10, 0}, [4]int{10, 45, 12, 0}, [4]int{12, 30, 17, 0})

		got := CombineDay(clock(loc, 9, 0), clock(loc, 17, 0), busy, cfg)
		checkSlots(t, got, []wantSlot{
			{clock(loc, 10, 0), clock(loc, 10, 45), 45, Granularity30},
			{clock(loc, 12, 0), clock(loc, 12, 30), 30, Granularity30},
		})
	})

	t.Run("mixed gaps are ordered by start", func(t *testing.T) {
		loc := time.UTC
		busy := busyAt(loc, [4]int{9, 40, 10, 0}, [4]int{10, 50, 15, 0})

		got := CombineDay(clock(loc, 9, 0), clock(loc, 17, 0), busy, cfg)
		checkSlots(t, got, []wantSlot{
			{clock(loc, 9, 0), clock(loc, 9, 40), 40, Granularity30},
			{clock(loc, 10, 0), clock(loc, 10, 50), 50, Granularity30},
			{clock(loc, 15, 0), clock(loc, 17, 0), 120, Granularity60},
		})
	})

	// A 90 minute gap yields one primary slot spanning the gap; the secondary pass
	// sees the same gap starting at the same instant and is suppressed.
	t.Run("ninety minute gap", func(t *testing.T) {
		loc := time.UTC
		busy := busyAt(loc, [4]int{9, 0, 10, 0}, [4]int{11, 30, 17, 0})

		got := CombineDay(clock(loc, 9, 0), clock(loc, 17, 0), busy, cfg)
		checkSlots(t, got, []wantSlot{
			{clock(loc, 10, 0), clock(loc, 11, 30), 90, Granularity60},
		})
	})
}

package availability

import (
	"slices"
	"time"
)

// DayFreeSlots walks the merged busy intervals of one working window and returns every
// gap of at least minDuration, tagged with g. busy must be sorted, disjoint and
// clipped to [dayStart, dayEnd]. A gap exactly minDuration long is included.
func DayFreeSlots(dayStart, dayEnd time.Time, busy []BusyInterval, minDuration time.Duration, g Granularity) []FreeSlot {
	var slots []FreeSlot
	cursor := dayStart
	for _, b := range busy {
		if b.Start.After(cursor) && b.Start.Sub(cursor) >= minDuration {
			slots = append(slots, newFreeSlot(cursor, b.Start, g))
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if gap := dayEnd.Sub(cursor); gap > 0 && gap >= minDuration {
		slots = append(slots, newFreeSlot(cursor, dayEnd, g))
	}
	return slots
}

// CombineDay computes a working window's slots at the primary and secondary
// granularities. Every primary slot is kept. A secondary slot is kept only when it is
// shorter than the primary granularity and does not start where a primary slot starts.
func CombineDay(dayStart, dayEnd time.Time, busy []BusyInterval, cfg Config) []FreeSlot {
	primary := DayFreeSlots(dayStart, dayEnd, busy, cfg.PrimaryGranularity, GranularityOf(cfg.PrimaryGranularity))
	secondary := DayFreeSlots(dayStart, dayEnd, busy, cfg.SecondaryGranularity, GranularityOf(cfg.SecondaryGranularity))

	// Only start instants are compared, not full overlap.
	primaryStarts := make(map[int64]struct{}, len(primary))
	for _, s := range primary {
		primaryStarts[s.Start.UnixNano()] = struct{}{}
	}

	out := slices.Clone(primary)
	for _, s := range secondary {
		if s.End.Sub(s.Start) >= cfg.PrimaryGranularity {
			continue
		}
		if _, taken := primaryStarts[s.Start.UnixNano()]; taken {
			continue
		}
		out = append(out, s)
	}
	sortSlots(out)
	return out
}

func sortSlots(slots []FreeSlot) {
	slices.SortStableFunc(slots, func(a, b FreeSlot) int {
		return a.Start.Compare(b.Start)
	})
}

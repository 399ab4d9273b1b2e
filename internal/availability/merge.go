package availability

import (
	"slices"
	"strings"
	"time"
)

const titleSeparator = ", "

// FilterValid drops intervals whose end is not after their start.
func FilterValid(in []BusyInterval) []BusyInterval {
	out := make([]BusyInterval, 0, len(in))
	for _, b := range in {
		if b.Valid() {
			out = append(out, b)
		}
	}
	return out
}

// MergeIntervals collapses overlapping or touching intervals into a sorted, disjoint
// sequence. A merged interval keeps the source ID of its earliest member and the
// distinct titles of all members. The input is not modified.
func MergeIntervals(in []BusyInterval) []BusyInterval {
	if len(in) == 0 {
		return nil
	}

	sorted := slices.Clone(in)
	slices.SortStableFunc(sorted, func(a, b BusyInterval) int {
		return a.Start.Compare(b.Start)
	})

	out := make([]BusyInterval, 0, len(sorted))
	out = append(out, sorted[0])
	for _, next := range sorted[1:] {
		last := &out[len(out)-1]
		if next.Start.After(last.End) {
			out = append(out, next)
			continue
		}
		if next.End.After(last.End) {
			last.End = next.End
		}
		last.Title = joinTitle(last.Title, next.Title)
	}
	return out
}

func joinTitle(have, add string) string {
	switch {
	case add == "":
		return have
	case have == "":
		return add
	case slices.Contains(strings.Split(have, titleSeparator), add):
		return have
	}
	return have + titleSeparator + add
}

// ClipToWindow intersects each interval with [start, end) and drops empty results.
func ClipToWindow(busy []BusyInterval, start, end time.Time) []BusyInterval {
	var out []BusyInterval
	for _, b := range busy {
		if !b.Overlaps(start, end) {
			continue
		}
		if b.Start.Before(start) {
			b.Start = start
		}
		if b.End.After(end) {
			b.End = end
		}
		out = append(out, b)
	}
	return out
}

func sumDurations(busy []BusyInterval) time.Duration {
	var total time.Duration
	for _, b := range busy {
		total += b.Duration()
	}
	return total
}

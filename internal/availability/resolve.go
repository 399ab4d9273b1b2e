package availability

import (
	"slices"
	"time"
)

// Resolve computes the free slots of a request against a busy set. Invalid busy
// intervals are dropped before merging. Each day's working window is intersected with
// the request range, so no slot starts before req.Start or ends after req.End.
func Resolve(req TimeWindowRequest, busy []BusyInterval, cfg Config) Result {
	loc := locationOf(req)
	valid := FilterValid(busy)
	merged := MergeIntervals(valid)

	var slots []FreeSlot
	for day := range RequestDays(req) {
		midnight := day.Start(loc)
		windowStart := TimeOnDate(midnight, req.WorkingHours.Start, loc, cfg.WorkingHours.Start)
		windowEnd := TimeOnDate(midnight, req.WorkingHours.End, loc, cfg.WorkingHours.End)
		if windowStart.Before(req.Start) {
			windowStart = req.Start
		}
		if windowEnd.After(req.End) {
			windowEnd = req.End
		}
		if !windowEnd.After(windowStart) {
			continue
		}
		clipped := ClipToWindow(merged, windowStart, windowEnd)
		slots = append(slots, CombineDay(windowStart, windowEnd, clipped, cfg)...)
	}
	sortSlots(slots)

	freeMinutes := 0
	for _, s := range slots {
		freeMinutes += s.DurationMinutes
	}

	listed := slots
	if cfg.MaxSlots > 0 && len(listed) > cfg.MaxSlots {
		listed = slices.Clone(listed[:cfg.MaxSlots])
	}

	return Result{
		Slots:            listed,
		TotalSlots:       len(slots),
		BusySlots:        merged,
		TotalFreeMinutes: freeMinutes,
		TotalBusyMinutes: int(sumDurations(merged) / time.Minute),
		MeetingCount:     len(valid),
		Request:          req,
	}
}

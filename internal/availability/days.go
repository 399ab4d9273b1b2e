package availability

import (
	"iter"
	"time"
)

// Days yields every civil day from the day containing start through the day containing
// end, inclusive. The sequence is lazy and can be ranged over any number of times.
func Days(start, end time.Time, loc *time.Location) iter.Seq[CivilDate] {
	return func(yield func(CivilDate) bool) {
		if end.Before(start) {
			return
		}
		first := CivilPartsOf(start, loc)
		last := CivilPartsOf(end, loc).key()
		for i := 0; ; i++ {
			// Noon never falls inside a DST transition.
			day := CivilPartsOf(CivilToInstant(first.Year, first.Month, first.Day+i, 12, 0, 0, loc), loc)
			if day.key() > last {
				return
			}
			if !yield(day) {
				return
			}
		}
	}
}

// FilterDays yields the days of seq for which keep returns true.
func FilterDays(seq iter.Seq[CivilDate], keep func(CivilDate) bool) iter.Seq[CivilDate] {
	return func(yield func(CivilDate) bool) {
		for d := range seq {
			if keep(d) && !yield(d) {
				return
			}
		}
	}
}

// RequestDays returns the civil days a request covers, without weekends when the
// request excludes them.
func RequestDays(req TimeWindowRequest) iter.Seq[CivilDate] {
	days := Days(req.Start, req.End, locationOf(req))
	if req.ExcludeWeekends {
		days = FilterDays(days, IsWorkday)
	}
	return days
}

func locationOf(req TimeWindowRequest) *time.Location {
	if req.Location == nil {
		return time.UTC
	}
	return req.Location
}

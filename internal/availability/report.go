package availability

import (
	"math"
	"time"
)

// Report is the serialized form of a Result.
type Report struct {
	AvailableSlots      []SlotView   `json:"availableSlots"`
	TotalAvailableSlots int          `json:"totalAvailableSlots"`
	BusySlots           []BusyView   `json:"busySlots"`
	Summary             Summary      `json:"summary"`
	Range               RangeView    `json:"range"`
	Timezone            string       `json:"timezone"`
	DurationMinutes     int          `json:"durationMinutes"`
	WorkingHours        WorkingHours `json:"workingHours"`
	ExcludeWeekends     bool         `json:"excludeWeekends"`
}

type SlotView struct {
	Start           string      `json:"start"`
	End             string      `json:"end"`
	DurationMinutes int         `json:"durationMinutes"`
	Granularity     Granularity `json:"granularity"`
}

type BusyView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Summary struct {
	TotalFreeMinutes int     `json:"totalFreeMinutes"`
	TotalBusyMinutes int     `json:"totalBusyMinutes"`
	TotalFreeHours   float64 `json:"totalFreeHours"`
	TotalBusyHours   float64 `json:"totalBusyHours"`
	MeetingCount     int     `json:"meetingCount"`
}

type RangeView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewReport renders a result with instants formatted as RFC 3339 in the request
// timezone.
func NewReport(res Result) Report {
	loc := locationOf(res.Request)
	format := func(t time.Time) string { return t.In(loc).Format(time.RFC3339) }

	slots := make([]SlotView, 0, len(res.Slots))
	for _, s := range res.Slots {
		slots = append(slots, SlotView{
			Start:           format(s.Start),
			End:             format(s.End),
			DurationMinutes: s.DurationMinutes,
			Granularity:     s.Granularity,
		})
	}

	return Report{
		AvailableSlots:      slots,
		TotalAvailableSlots: res.TotalSlots,
		BusySlots:           BusyViews(res.BusySlots, loc),
		Summary: Summary{
			TotalFreeMinutes: res.TotalFreeMinutes,
			TotalBusyMinutes: res.TotalBusyMinutes,
			TotalFreeHours:   minutesToHours(res.TotalFreeMinutes),
			TotalBusyHours:   minutesToHours(res.TotalBusyMinutes),
			MeetingCount:     res.MeetingCount,
		},
		Range: RangeView{
			Start: format(res.Request.Start),
			End:   format(res.Request.End),
		},
		Timezone:        loc.String(),
		DurationMinutes: res.Request.DurationMinutes,
		WorkingHours:    res.Request.WorkingHours,
		ExcludeWeekends: res.Request.ExcludeWeekends,
	}
}

// BusyViews renders busy intervals with instants formatted as RFC 3339 in loc.
func BusyViews(busy []BusyInterval, loc *time.Location) []BusyView {
	views := make([]BusyView, 0, len(busy))
	for _, b := range busy {
		views = append(views, BusyView{
			ID:    b.SourceID,
			Title: b.Title,
			Start: b.Start.In(loc).Format(time.RFC3339),
			End:   b.End.In(loc).Format(time.RFC3339),
		})
	}
	return views
}

// minutesToHours converts minutes to hours rounded to one decimal place.
func minutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}

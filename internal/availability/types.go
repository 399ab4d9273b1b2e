package availability

import (
	"fmt"
	"time"
)

// Granularity tags a free slot with the minimum duration it was evaluated against.
type Granularity string

const (
	Granularity60 Granularity = "60min"
	Granularity30 Granularity = "30min"
)

// GranularityOf returns the tag for a slot duration threshold.
func GranularityOf(d time.Duration) Granularity {
	return Granularity(fmt.Sprintf("%dmin", int(d/time.Minute)))
}

// CivilDate is a calendar day as seen in a particular timezone.
type CivilDate struct {
	Year    int
	Month   time.Month
	Day     int
	Weekday time.Weekday
}

// Start returns civil midnight of the day in loc.
func (d CivilDate) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CivilDate) key() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// BusyInterval is a time range occupied by an existing calendar event.
type BusyInterval struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	SourceID string    `json:"id,omitempty"`
	Title    string    `json:"title,omitempty"`
}

// Duration returns the length of the interval.
func (b BusyInterval) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Valid reports whether the interval has a positive length.
func (b BusyInterval) Valid() bool {
	return b.End.After(b.Start)
}

// Overlaps reports whether the half-open ranges [b.Start, b.End) and [start, end) intersect.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}

// FreeSlot is a bookable gap inside a day's working window.
type FreeSlot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Granularity     Granularity
}

func newFreeSlot(start, end time.Time, g Granularity) FreeSlot {
	return FreeSlot{
		Start:           start,
		End:             end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Granularity:     g,
	}
}

// TimeWindowRequest is a fully resolved availability request.
type TimeWindowRequest struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
	WorkingHours    WorkingHours
	ExcludeWeekends bool
	Location        *time.Location
}

// Result is the computed availability for one request.
type Result struct {
	// Slots holds the earliest slots, capped at Config.MaxSlots.
	Slots []FreeSlot
	// TotalSlots counts every computed slot, including those past the cap.
	TotalSlots int
	// BusySlots is the merged busy set over the whole window.
	BusySlots        []BusyInterval
	TotalFreeMinutes int
	TotalBusyMinutes int
	MeetingCount     int
	Request          TimeWindowRequest
}

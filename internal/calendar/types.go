package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Event status, transparency and type values used by the Calendar API.
const (
	StatusCancelled      = "cancelled"
	TransparencyOpaque   = "opaque"
	TransparencyFree     = "transparent"
	EventTypeDefault     = "default"
	EventTypeOutOfOffice = "outOfOffice"
	ResponseDeclined     = "declined"
)

// EventSummary represents a simplified calendar event for listing
type EventSummary struct {
	ID           string
	Summary      string
	Location     string
	Start        time.Time
	End          time.Time
	AllDay       bool
	Organizer    string
	Status       string
	Transparency string
	EventType    string
	// Declined is set when the calendar owner declined the invitation.
	Declined  bool
	Attendees []AttendeeInfo
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
	Organizer      bool
	Self           bool
}

// CalendarInfo represents information about a calendar
type CalendarInfo struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
	Primary     bool
	AccessRole  string // "owner", "writer", "reader", "freeBusyReader"
}

// FreeBusyInfo represents availability information for a calendar
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	Errors   []string
}

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// toEventSummary converts a Google Calendar event. All-day dates are placed at
// midnight in loc, the calendar's time zone.
func toEventSummary(event *calendar.Event, loc *time.Location) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:           event.Id,
		Summary:      event.Summary,
		Location:     event.Location,
		Status:       event.Status,
		Transparency: event.Transparency,
		EventType:    event.EventType,
	}

	var allDay bool
	summary.Start, allDay = parseEventTime(event.Start, loc)
	summary.End, _ = parseEventTime(event.End, loc)
	summary.AllDay = allDay

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
			Self:           att.Self,
		})
		if att.Self && att.ResponseStatus == ResponseDeclined {
			summary.Declined = true
		}
	}

	return summary
}

// parseEventTime returns the instant of an event boundary and whether it is a date
// without a time of day.
func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t, false
		}
		return time.Time{}, false
	}
	if dt.Date != "" {
		if dt.TimeZone != "" {
			loc = locationOrUTC(dt.TimeZone)
		}
		if t, err := time.ParseInLocation(time.DateOnly, dt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		TimeZone:    entry.TimeZone,
		Primary:     entry.Primary,
		AccessRole:  entry.AccessRole,
	}
}

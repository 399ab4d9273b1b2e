package calendar

import (
	"context"
	"time"

	"github.com/teemow/dealdesk/internal/availability"
)

// BusyIntervals returns the events in calendarID that block time in [start, end).
func (c *Client) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]availability.BusyInterval, error) {
	events, err := c.ListEvents(ctx, calendarID, start, end, "")
	if err != nil {
		return nil, err
	}
	return BusyFromEvents(events), nil
}

// BusyFromEvents keeps the events that make their owner unavailable. Cancelled,
// transparent and declined events are dropped. All-day events only count when they
// are out-of-office entries.
func BusyFromEvents(events []EventSummary) []availability.BusyInterval {
	busy := make([]availability.BusyInterval, 0, len(events))
	for _, e := range events {
		if !e.BlocksTime() {
			continue
		}
		busy = append(busy, availability.BusyInterval{
			Start:    e.Start,
			End:      e.End,
			SourceID: e.ID,
			Title:    e.Summary,
		})
	}
	return busy
}

// BlocksTime reports whether the event makes its owner unavailable.
func (e EventSummary) BlocksTime() bool {
	switch {
	case e.Status == StatusCancelled:
		return false
	case e.Transparency == TransparencyFree:
		return false
	case e.Declined:
		return false
	case e.AllDay && e.EventType != EventTypeOutOfOffice:
		return false
	case e.Start.IsZero() || !e.End.After(e.Start):
		return false
	}
	return true
}

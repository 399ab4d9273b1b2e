package scheduling

import (
	"context"
	"time"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/calendar"
)

// BusySource reads the busy intervals of one calendar overlapping [start, end).
// Implementations may return intervals that extend past the window.
type BusySource interface {
	BusyIntervals(ctx context.Context, account, calendarID string, start, end time.Time) ([]availability.BusyInterval, error)
}

// FreshnessReporter is implemented by sources that hold a synced copy of a calendar.
type FreshnessReporter interface {
	LastSyncedAt(ctx context.Context, account string) (time.Time, error)
}

// CalendarClients returns a Google Calendar client for an account.
type CalendarClients interface {
	CalendarClientForAccount(ctx context.Context, account string) (*calendar.Client, error)
}

// GoogleSource reads busy intervals live from Google Calendar.
type GoogleSource struct {
	clients CalendarClients
}

// NewGoogleSource creates a source backed by per-account Calendar clients.
func NewGoogleSource(clients CalendarClients) *GoogleSource {
	return &GoogleSource{clients: clients}
}

// BusyIntervals implements BusySource.
func (g *GoogleSource) BusyIntervals(ctx context.Context, account, calendarID string, start, end time.Time) ([]availability.BusyInterval, error) {
	client, err := g.clients.CalendarClientForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return client.BusyIntervals(ctx, calendarID, start, end)
}

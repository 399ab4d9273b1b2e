// Package calendar provides a read-only Google Calendar API client.
//
// The client lists events, calendars and free/busy information for one account and
// converts events into availability.BusyInterval values:
//
//	client, err := calendar.NewClientForAccount(ctx, "work")
//	busy, err := client.BusyIntervals(ctx, "primary", start, end)
//
// Every API call runs inside a client span and is counted in the
// google_calendar_requests_total metric when a recorder is attached with WithMetrics.
package calendar

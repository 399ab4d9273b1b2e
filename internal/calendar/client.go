package calendar

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/dealdesk/internal/google"
	"github.com/teemow/dealdesk/internal/instrumentation"
)

// maxPageSize is the largest page the Events API returns.
const maxPageSize = 2500

// Client wraps the Google Calendar service for one account.
type Client struct {
	svc     *calendar.Service
	account string
	metrics *instrumentation.Metrics
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccountWithProvider checks if a valid OAuth token exists for the specified account
func HasTokenForAccountWithProvider(account string, provider google.TokenProvider) bool {
	if provider == nil {
		return false
	}
	return provider.HasTokenForAccount(account)
}

// HasTokenForAccount checks if a token file exists for the specified account.
func HasTokenForAccount(account string) bool {
	return HasTokenForAccountWithProvider(account, google.NewFileTokenProvider())
}

// NewClientForAccountWithProvider creates a Calendar client for account. The token is
// read from tokenProvider and refreshed through the configured OAuth client. Extra
// options are passed to the Calendar service.
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider, opts ...option.ClientOption) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	httpClient := oauth2.NewClient(ctx, google.GetOAuthConfig().TokenSource(ctx, token))
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return NewClientFromService(svc, account), nil
}

// NewClientForAccount creates a Calendar client using tokens stored on disk.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider())
}

// NewClientFromService wraps an existing Calendar service.
func NewClientFromService(svc *calendar.Service, account string) *Client {
	return &Client{svc: svc, account: account}
}

// WithMetrics sets the recorder for Calendar API calls.
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// observe runs one API call inside a client span and records its metrics.
func (c *Client) observe(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartCalendarSpan(ctx, operation,
		attribute.String(instrumentation.SpanAttrAccount, c.account))
	defer span.End()

	start := time.Now()
	err := call(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordCalendarRequest(ctx, operation, status, time.Since(start))
	return err
}

// ListEvents lists single (expanded) events in a calendar that overlap
// [timeMin, timeMax), ordered by start time. All pages are read.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		OrderBy("startTime").
		MaxResults(maxPageSize)

	if query != "" {
		call = call.Q(query)
	}

	var summaries []EventSummary
	err := c.observe(ctx, instrumentation.OperationListEvents, func(ctx context.Context) error {
		return call.Pages(ctx, func(page *calendar.Events) error {
			loc := locationOrUTC(page.TimeZone)
			for _, event := range page.Items {
				summaries = append(summaries, toEventSummary(event, loc))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return summaries, nil
}

// ListCalendars lists all calendars accessible to the user
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	err := c.observe(ctx, instrumentation.OperationListCalendars, func(ctx context.Context) error {
		return c.svc.CalendarList.List().Pages(ctx, func(list *calendar.CalendarList) error {
			for _, entry := range list.Items {
				calendars = append(calendars, toCalendarInfo(entry))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	return calendars, nil
}

// QueryFreeBusy returns the busy blocks Google reports for each calendar in
// [timeMin, timeMax). Results are ordered by calendar ID.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	var result *calendar.FreeBusyResponse
	err := c.observe(ctx, instrumentation.OperationFreeBusy, func(ctx context.Context) error {
		var err error
		result, err = c.svc.Freebusy.Query(query).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	infos := make([]FreeBusyInfo, 0, len(result.Calendars))
	for calID, cal := range result.Calendars {
		info := FreeBusyInfo{Calendar: calID}

		for _, busy := range cal.Busy {
			start, err := time.Parse(time.RFC3339, busy.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, busy.End)
			if err != nil {
				continue
			}
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}

		for _, e := range cal.Errors {
			info.Errors = append(info.Errors, e.Reason)
		}

		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b FreeBusyInfo) int {
		return strings.Compare(a.Calendar, b.Calendar)
	})
	return infos, nil
}

func locationOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

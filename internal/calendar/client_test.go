package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewClientFromService(svc, "work")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

type staticTokenProvider struct {
	token *oauth2.Token
	err   error
}

func (p staticTokenProvider) GetTokenForAccount(context.Context, string) (*oauth2.Token, error) {
	return p.token, p.err
}

func (p staticTokenProvider) HasTokenForAccount(string) bool {
	return p.token != nil
}

func TestListEvents_Pagination(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "2025-03-10T09:00:00Z", q.Get("timeMin"))

		switch q.Get("pageToken") {
		case "":
			writeJSON(t, w, map[string]any{
				"timeZone":      "Europe/Berlin",
				"nextPageToken": "page2",
				"items": []map[string]any{{
					"id":      "evt-1",
					"summary": "Pipeline review",
					"status":  "confirmed",
					"start":   map[string]string{"dateTime": "2025-03-10T10:00:00+01:00"},
					"end":     map[string]string{"dateTime": "2025-03-10T11:00:00+01:00"},
				}},
			})
		case "page2":
			writeJSON(t, w, map[string]any{
				"timeZone": "Europe/Berlin",
				"items": []map[string]any{{
					"id":        "evt-2",
					"summary":   "Vacation",
					"eventType": "outOfOffice",
					"start":     map[string]string{"date": "2025-03-11"},
					"end":       map[string]string{"date": "2025-03-12"},
				}},
			})
		default:
			t.Errorf("unexpected page token %q", q.Get("pageToken"))
		}
	})

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events, err := client.ListEvents(context.Background(), "primary", start, start.Add(48*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, "evt-1", events[0].ID)
	assert.True(t, events[0].Start.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	assert.False(t, events[0].AllDay)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.True(t, events[1].AllDay)
	assert.True(t, events[1].Start.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, berlin)))
	assert.True(t, events[1].End.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, berlin)))
}

func TestListEvents_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(t, w, map[string]any{"error": map[string]any{"code": 403, "message": "forbidden"}})
	})

	_, err := client.ListEvents(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list events")
}

func TestBusyIntervals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"timeZone": "UTC",
			"items": []map[string]any{
				{
					"id": "keep", "summary": "Discovery call",
					"start": map[string]string{"dateTime": "2025-03-10T10:00:00Z"},
					"end":   map[string]string{"dateTime": "2025-03-10T11:00:00Z"},
				},
				{
					"id": "cancelled", "status": "cancelled",
					"start": map[string]string{"dateTime": "2025-03-10T12:00:00Z"},
					"end":   map[string]string{"dateTime": "2025-03-10T13:00:00Z"},
				},
				{
					"id": "free", "transparency": "transparent",
					"start": map[string]string{"dateTime": "2025-03-10T13:00:00Z"},
					"end":   map[string]string{"dateTime": "2025-03-10T14:00:00Z"},
				},
				{
					"id":    "holiday",
					"start": map[string]string{"date": "2025-03-10"},
					"end":   map[string]string{"date": "2025-03-11"},
				},
				{
					"id":        "declined",
					"attendees": []map[string]any{{"email": "rep@example.com", "self": true, "responseStatus": "declined"}},
					"start":     map[string]string{"dateTime": "2025-03-10T15:00:00Z"},
					"end":       map[string]string{"dateTime": "2025-03-10T16:00:00Z"},
				},
			},
		})
	})

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	busy, err := client.BusyIntervals(context.Background(), "primary", start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, "keep", busy[0].SourceID)
	assert.Equal(t, "Discovery call", busy[0].Title)
	assert.Equal(t, time.Hour, busy[0].Duration())
}

func TestQueryFreeBusy(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/freeBusy"), r.URL.Path)

		var req calendar.FreeBusyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Items, 2)

		writeJSON(t, w, map[string]any{
			"calendars": map[string]any{
				"zed@example.com": map[string]any{
					"errors": []map[string]string{{"domain": "global", "reason": "notFound"}},
				},
				"primary": map[string]any{
					"busy": []map[string]string{
						{"start": "2025-03-10T10:00:00Z", "end": "2025-03-10T11:00:00Z"},
						{"start": "bogus", "end": "2025-03-10T12:00:00Z"},
					},
				},
			},
		})
	})

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	infos, err := client.QueryFreeBusy(context.Background(), start, start.Add(24*time.Hour), []string{"primary", "zed@example.com"})
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "primary", infos[0].Calendar)
	require.Len(t, infos[0].Busy, 1)
	assert.True(t, infos[0].Busy[0].Start.Equal(start.Add(10*time.Hour)))

	assert.Equal(t, "zed@example.com", infos[1].Calendar)
	assert.Equal(t, []string{"notFound"}, infos[1].Errors)
}

func TestListCalendars(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/calendarList"), r.URL.Path)
		writeJSON(t, w, map[string]any{
			"items": []map[string]any{
				{"id": "rep@example.com", "summary": "Rep", "primary": true, "timeZone": "America/New_York", "accessRole": "owner"},
			},
		})
	})

	cals, err := client.ListCalendars(context.Background())
	require.NoError(t, err)
	require.Len(t, cals, 1)
	assert.True(t, cals[0].Primary)
	assert.Equal(t, "America/New_York", cals[0].TimeZone)
}

func TestNewClientForAccountWithProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access", r.Header.Get("Authorization"))
		writeJSON(t, w, map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	provider := staticTokenProvider{token: &oauth2.Token{
		AccessToken: "test-access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}}

	client, err := NewClientForAccountWithProvider(context.Background(), "work", provider, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	assert.Equal(t, "work", client.Account())

	_, err = client.ListEvents(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour), "")
	require.NoError(t, err)
}

func TestNewClientForAccountWithProvider_Errors(t *testing.T) {
	_, err := NewClientForAccountWithProvider(context.Background(), "work", nil)
	assert.Error(t, err)

	sentinel := errors.New("no token")
	_, err = NewClientForAccountWithProvider(context.Background(), "work", staticTokenProvider{err: sentinel})
	assert.ErrorIs(t, err, sentinel)
}

func TestHasTokenForAccountWithProvider(t *testing.T) {
	assert.False(t, HasTokenForAccountWithProvider("work", nil))
	assert.False(t, HasTokenForAccountWithProvider("work", staticTokenProvider{}))
	assert.True(t, HasTokenForAccountWithProvider("work", staticTokenProvider{token: &oauth2.Token{}}))
}

func TestToEventSummary_Nil(t *testing.T) {
	assert.Equal(t, EventSummary{}, toEventSummary(nil, time.UTC))
	assert.Equal(t, CalendarInfo{}, toCalendarInfo(nil))
}

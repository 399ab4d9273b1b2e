package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/dealdesk/internal/api"
	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/scheduling"
)

type fakeSource struct {
	busy []availability.BusyInterval
	err  error
}

func (f fakeSource) BusyIntervals(context.Context, string, string, time.Time, time.Time) ([]availability.BusyInterval, error) {
	return f.busy, f.err
}

var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func setupAPI(t *testing.T, source scheduling.BusySource, opts ...api.Option) *api.API {
	t.Helper()
	svc := scheduling.NewService(source, "fake", availability.DefaultConfig(),
		scheduling.WithClock(func() time.Time { return monday.Add(8 * time.Hour) }))
	opts = append([]api.Option{api.WithAccessLog(nil)}, opts...)
	return api.NewAPI(svc, opts...)
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, api.Response) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res api.Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	}
	return rec, res
}

func TestHealth(t *testing.T) {
	a := setupAPI(t, fakeSource{})

	rec, res := do(t, a.Router(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body, ok := res.Response.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "fake", body["source"])
	assert.NotEmpty(t, rec.Header().Get(api.RequestIDHeader))
}

func TestCheckAvailability(t *testing.T) {
	t.Parallel()

	t.Run("inline busy intervals", func(t *testing.T) {
		t.Parallel()
		a := setupAPI(t, fakeSource{err: errors.New("not used")})

		body := `{
			"userId": "rep-1",
			"timezone": "UTC",
			"explicitStart": "2025-03-10T09:00:00Z",
			"explicitEnd": "2025-03-10T17:00:00Z",
			"busyIntervals": [
				{"id": "evt-1", "title": "Standup", "start": "2025-03-10T09:00:00Z", "end": "2025-03-10T10:00:00Z"}
			]
		}`
		rec, res := do(t, a.Router(), http.MethodPost, "/api/availability", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, res.Status)

		report, ok := res.Response.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "UTC", report["timezone"])
		slots, ok := report["availableSlots"].([]any)
		require.True(t, ok)
		require.Len(t, slots, 1)
		first := slots[0].(map[string]any)
		assert.Equal(t, "2025-03-10T10:00:00Z", first["start"])
		assert.Equal(t, "2025-03-10T17:00:00Z", first["end"])

		summary := report["summary"].(map[string]any)
		assert.EqualValues(t, 1, summary["meetingCount"])
		assert.EqualValues(t, 60, summary["totalBusyMinutes"])
	})

	t.Run("busy intervals from source", func(t *testing.T) {
		t.Parallel()
		a := setupAPI(t, fakeSource{busy: []availability.BusyInterval{
			{Start: monday.Add(12 * time.Hour), End: monday.Add(13 * time.Hour), SourceID: "lunch"},
		}})

		body := `{"timezone":"UTC","explicitStart":"2025-03-10T09:00:00Z","explicitEnd":"2025-03-10T17:00:00Z"}`
		rec, res := do(t, a.Router(), http.MethodPost, "/api/availability", body)
		require.Equal(t, http.StatusOK, rec.Code)

		report := res.Response.(map[string]any)
		busy := report["busySlots"].([]any)
		require.Len(t, busy, 1)
		assert.Equal(t, "lunch", busy[0].(map[string]any)["id"])
	})

	errorCases := []struct {
		name   string
		source scheduling.BusySource
		body   string
		want   int
	}{
		{name: "invalid json", source: fakeSource{}, body: "not json", want: http.StatusBadRequest},
		{name: "unknown timezone", source: fakeSource{}, body: `{"timezone":"Nowhere/Special"}`, want: http.StatusBadRequest},
		{name: "no source", source: nil, body: `{"timezone":"UTC"}`, want: http.StatusUnprocessableEntity},
		{name: "source failure", source: fakeSource{err: errors.New("quota")}, body: `{"timezone":"UTC"}`, want: http.StatusBadGateway},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := setupAPI(t, tt.source)

			rec, res := do(t, a.Router(), http.MethodPost, "/api/availability", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want, res.Status)
			body, ok := res.Response.(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, rec.Header().Get(api.RequestIDHeader), body["requestId"])
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()
		a := setupAPI(t, fakeSource{})
		rec, res := do(t, a.Router(), http.MethodGet, "/api/availability", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.StatusMethodNotAllowed, res.Status)
		body, ok := res.Response.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, body["error"], "GET")
	})

	t.Run("wrong method through full handler", func(t *testing.T) {
		t.Parallel()
		a := setupAPI(t, fakeSource{})
		rec, _ := do(t, a.Handler(), http.MethodDelete, "/api/busy", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestBusyBlocks(t *testing.T) {
	a := setupAPI(t, fakeSource{busy: []availability.BusyInterval{
		{Start: monday.Add(9 * time.Hour), End: monday.Add(10 * time.Hour), SourceID: "a", Title: "Call"},
		{Start: monday.Add(9*time.Hour + 30*time.Minute), End: monday.Add(11 * time.Hour), SourceID: "b", Title: "Demo"},
	}})

	rec, res := do(t, a.Router(), http.MethodGet,
		"/api/busy?userId=rep-1&start=2025-03-10T00:00:00Z&end=2025-03-11T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := res.Response.(map[string]any)
	assert.Equal(t, "primary", body["calendarId"])
	busy := body["busy"].([]any)
	require.Len(t, busy, 1)
	assert.Equal(t, "Call, Demo", busy[0].(map[string]any)["title"])
	assert.Equal(t, "2025-03-10T11:00:00Z", busy[0].(map[string]any)["end"])

	for _, target := range []string{
		"/api/busy?start=yesterday&end=2025-03-11T00:00:00Z",
		"/api/busy?start=2025-03-10T00:00:00Z",
		"/api/busy?start=2025-03-11T00:00:00Z&end=2025-03-10T00:00:00Z",
	} {
		rec, _ := do(t, a.Router(), http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestRequestID(t *testing.T) {
	a := setupAPI(t, fakeSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(api.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(api.RequestIDHeader))
}

func TestHandler_CORSAndAccessLog(t *testing.T) {
	var logBuf bytes.Buffer
	a := setupAPI(t, fakeSource{},
		api.WithAccessLog(&logBuf),
		api.WithAllowedOrigins([]string{"https://crm.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/availability", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://crm.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logBuf.String(), "GET /api/health")
}

func TestMetricsMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(provider.Meter("test"), false)
	require.NoError(t, err)

	a := setupAPI(t, fakeSource{}, api.WithMetrics(metrics))
	do(t, a.Router(), http.MethodGet, "/api/health", "")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			require.Len(t, sum.DataPoints, 1)
			route, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("route"))
			assert.Equal(t, "/api/health", route.AsString())
			found = true
		}
	}
	assert.True(t, found, "http_requests_total not recorded")
}

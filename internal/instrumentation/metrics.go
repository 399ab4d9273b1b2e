package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrRoute     = "route"
	attrStatus    = "status"
	attrOperation = "operation"
	attrSource    = "source"
	attrTool      = "tool"
	attrAccount   = "account"
)

var (
	latencyBuckets = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	slotBuckets    = []float64{0, 1, 5, 10, 25, 50, 100, 250}
)

// Metrics records the service's OpenTelemetry instruments. A zero Metrics is a valid
// no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	calendarRequestsTotal   metric.Int64Counter
	calendarRequestDuration metric.Float64Histogram

	busyFetchDuration metric.Float64Histogram

	resolutionsTotal   metric.Int64Counter
	resolutionDuration metric.Float64Histogram
	resolutionSlots    metric.Int64Histogram

	rateLimitedTotal metric.Int64Counter

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...))
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}

	m.httpRequestsTotal = counter("http_requests_total", "Total number of HTTP requests", "{request}")
	m.httpRequestDuration = seconds("http_request_duration_seconds", "HTTP request duration in seconds")
	m.toolInvocationsTotal = counter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	m.toolDuration = seconds("mcp_tool_duration_seconds", "MCP tool execution duration in seconds")
	m.calendarRequestsTotal = counter("google_calendar_requests_total", "Total number of Google Calendar API requests", "{request}")
	m.calendarRequestDuration = seconds("google_calendar_request_duration_seconds", "Google Calendar API request duration in seconds")
	m.busyFetchDuration = seconds("busy_source_fetch_duration_seconds", "Time spent reading busy intervals from a source")
	m.resolutionsTotal = counter("availability_resolutions_total", "Total number of availability resolutions", "{resolution}")
	m.resolutionDuration = seconds("availability_resolution_duration_seconds", "Availability resolution duration in seconds, including the busy fetch")
	m.rateLimitedTotal = counter("http_rate_limited_total", "Total number of HTTP requests rejected by the rate limiter", "{request}")
	if err != nil {
		return nil, err
	}

	m.resolutionSlots, err = meter.Int64Histogram("availability_slots",
		metric.WithDescription("Number of free slots found per resolution"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(slotBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create availability_slots histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request by method, route template and status code.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrRoute, route),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation. The account label is only
// added when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		kv = append(kv, attribute.String(attrAccount, account))
	}
	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarRequest records a Google Calendar API call.
func (m *Metrics) RecordCalendarRequest(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarRequestsTotal.Add(ctx, 1, attrs)
	m.calendarRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordBusyFetch records how long reading busy intervals from source took.
func (m *Metrics) RecordBusyFetch(ctx context.Context, source, status string, duration time.Duration) {
	if m == nil || m.busyFetchDuration == nil {
		return
	}
	m.busyFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	))
}

// RecordResolution records one availability resolution and the number of slots it
// produced.
func (m *Metrics) RecordResolution(ctx context.Context, source, status string, slots int, duration time.Duration) {
	if m == nil || m.resolutionsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	)
	m.resolutionsTotal.Add(ctx, 1, attrs)
	m.resolutionDuration.Record(ctx, duration.Seconds(), attrs)
	if status == StatusSuccess {
		m.resolutionSlots.Record(ctx, int64(slots), metric.WithAttributes(attribute.String(attrSource, source)))
	}
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited(ctx context.Context, route string) {
	if m == nil || m.rateLimitedTotal == nil {
		return
	}
	m.rateLimitedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRoute, route)))
}

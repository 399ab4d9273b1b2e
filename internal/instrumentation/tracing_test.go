package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "calendar_check_availability")
	if TraceID(ctx) == "" {
		t.Error("expected a trace ID in the span context")
	}
	SetSpanSuccess(span)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "tool.calendar_check_availability" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", spans[0].SpanKind())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("status = %v", spans[0].Status())
	}
}

func TestStartCalendarSpan_Error(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartCalendarSpan(context.Background(), OperationListEvents)
	SetSpanError(span, errors.New("quota exceeded"))
	SetSpanError(span, nil)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "google.calendar.events.list" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].SpanKind() != trace.SpanKindClient {
		t.Errorf("span kind = %v", spans[0].SpanKind())
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != "quota exceeded" {
		t.Errorf("status = %v", spans[0].Status())
	}
	if len(spans[0].Events()) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(spans[0].Events()))
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID() = %q, want empty", got)
	}
}

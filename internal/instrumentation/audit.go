package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/dealdesk/internal/logging"
)

// ToolInvocation captures one MCP tool call for the audit log.
type ToolInvocation struct {
	ID         string
	Tool       string
	Account    string
	CalendarID string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool invocation.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithAccount sets the Google account the tool acted for.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithCalendar sets the calendar the tool read.
func (ti *ToolInvocation) WithCalendar(calendarID string) *ToolInvocation {
	ti.CalendarID = calendarID
	return ti
}

// WithSpanContext copies trace identifiers from the span in ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete stops the timer and records the outcome.
func (ti *ToolInvocation) Complete(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error".
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the audit attributes. Accounts and calendar IDs are hashed unless
// includePII is set.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.ID),
		logging.Tool(ti.Tool),
		logging.Duration(ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.Account != "" {
		if includePII {
			attrs = append(attrs, slog.String(logging.KeyAccount, ti.Account))
		} else {
			attrs = append(attrs, logging.Account(ti.Account))
		}
	}
	if ti.CalendarID != "" {
		if includePII {
			attrs = append(attrs, slog.String(logging.KeyCalendar, ti.CalendarID))
		} else {
			attrs = append(attrs, logging.Calendar(ti.CalendarID))
		}
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// AuditLogger writes tool invocations to a dedicated structured log stream.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation writes one audit entry. Failed invocations log at warn level.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, ti.LogAttrs(al.includePII)...)
}

package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyTool       = "tool"
	KeyAccount    = "account"
	KeyUserHash   = "user_hash"
	KeyCalendar   = "calendar_id"
	KeyTimezone   = "timezone"
	KeyWindow     = "window"
	KeySlotCount  = "slot_count"
	KeyBusyCount  = "busy_count"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyRequestID  = "request_id"
	KeyBusySource = "busy_source"
)

// Status values for consistent logging.
// These mirror the instrumentation status labels; instrumentation imports this
// package, not the other way round.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithAccount returns a logger with the anonymized account attribute set.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(Account(account))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Account returns a slog attribute for an account. Accounts that look like email
// addresses are anonymized.
func Account(account string) slog.Attr {
	if strings.Contains(account, "@") {
		return slog.String(KeyAccount, AnonymizeEmail(account))
	}
	return slog.String(KeyAccount, account)
}

// Calendar returns a slog attribute for a calendar ID.
func Calendar(id string) slog.Attr {
	if strings.Contains(id, "@") {
		return slog.String(KeyCalendar, AnonymizeEmail(id))
	}
	return slog.String(KeyCalendar, id)
}

// Timezone returns a slog attribute for a timezone name.
func Timezone(name string) slog.Attr {
	return slog.String(KeyTimezone, name)
}

// Window returns a grouped attribute describing a time window.
func Window(start, end time.Time) slog.Attr {
	return slog.Group(KeyWindow,
		slog.String("start", start.Format(time.RFC3339)),
		slog.String("end", end.Format(time.RFC3339)),
	)
}

// SlotCount returns a slog attribute for a number of free slots.
func SlotCount(n int) slog.Attr {
	return slog.Int(KeySlotCount, n)
}

// BusyCount returns a slog attribute for a number of busy intervals.
func BusyCount(n int) slog.Attr {
	return slog.Int(KeyBusyCount, n)
}

// BusySource returns a slog attribute naming where busy intervals came from.
func BusySource(name string) slog.Attr {
	return slog.String(KeyBusySource, name)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// RequestID returns a slog attribute for an HTTP request ID.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output,
// so Err(maybeNilErr) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
// This allows correlation of log entries without exposing PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// Package logging provides structured logging utilities for dealdesk.
//
// All packages log through log/slog. This package keeps attribute names consistent
// across the codebase and builds the process logger from configuration.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "availability.check")
//	logger.Info("resolved availability",
//	    logging.Timezone("Europe/London"),
//	    logging.SlotCount(12),
//	    logging.Err(err))
//
// # Security Considerations
//
// Account names and calendar IDs that look like email addresses are hashed before
// they are logged, so log entries can be correlated without exposing PII.
package logging

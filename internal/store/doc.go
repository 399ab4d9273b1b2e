// Package store reads calendar events that a sync job copied into Postgres.
//
// It uses database/sql with the pgx driver. The calendar_events table holds one row
// per event instance and calendar_sync_state records the last successful sync per
// user.
package store

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/teemow/dealdesk/internal/availability"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// ErrNotSynced is returned by LastSyncedAt for a user whose calendar was never synced.
var ErrNotSynced = errors.New("calendar has never been synced")

//go:embed schema.sql
var schema string

// Store reads synced calendar events from Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db), nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("database not configured")
	}
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the event and sync-state tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const busyQuery = `SELECT id, title, start_time, end_time FROM calendar_events WHERE user_id = $1 AND calendar_id = $2 AND status <> 'cancelled' AND end_time > $3 AND start_time < $4 ORDER BY start_time, id`

// BusyIntervals returns the non-cancelled events of a user's calendar that overlap
// [start, end).
func (s *Store) BusyIntervals(ctx context.Context, userID, calendarID string, start, end time.Time) ([]availability.BusyInterval, error) {
	rows, err := s.db.QueryContext(ctx, busyQuery, userID, calendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer func() { _ = rows.Close() }()

	busy := []availability.BusyInterval{}
	for rows.Next() {
		var (
			iv    availability.BusyInterval
			title sql.NullString
		)
		if err := rows.Scan(&iv.SourceID, &title, &iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		iv.Title = title.String
		busy = append(busy, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return busy, nil
}

const lastSyncedQuery = `SELECT last_synced_at FROM calendar_sync_state WHERE user_id = $1`

// LastSyncedAt returns when the user's calendar was last copied into the store.
func (s *Store) LastSyncedAt(ctx context.Context, userID string) (time.Time, error) {
	var at time.Time
	if err := s.db.QueryRowContext(ctx, lastSyncedQuery, userID).Scan(&at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotSynced
		}
		return time.Time{}, fmt.Errorf("scan: %w", err)
	}
	return at, nil
}

// ReadyCheck returns a readiness check that pings the database.
func ReadyCheck(s *Store) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.Ping(ctx)
	}
}

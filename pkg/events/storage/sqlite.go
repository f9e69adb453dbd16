package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ganymede/pkg/events"
)

// SQLiteStorage implements events.Storage backed by a SQLite database.
// It provides a durable journal suitable for single-instance deployments.
// The database uses write-ahead logging for better concurrent performance.
type SQLiteStorage struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStorage opens (creating if necessary) the journal database at the
// configured path.
func NewSQLiteStorage(cfg SQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite journal path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pool_events (
		id TEXT PRIMARY KEY,
		recorded_at INTEGER NOT NULL,
		kind TEXT NOT NULL,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_pool_events_recorded_at ON pool_events(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_pool_events_kind ON pool_events(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Store persists one event.
func (s *SQLiteStorage) Store(ctx context.Context, ev *events.Event) error {
	details, err := json.Marshal(ev.Details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pool_events (id, recorded_at, kind, details) VALUES (?, ?, ?, ?)`,
		ev.ID, ev.Time.UnixNano(), string(ev.Kind), string(details),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, q *events.Query) ([]*events.Event, error) {
	query := `SELECT id, recorded_at, kind, details FROM pool_events WHERE 1=1`
	var args []any

	if q != nil && q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(q.Kind))
	}
	if q != nil && !q.Since.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, q.Since.UnixNano())
	}
	query += ` ORDER BY recorded_at DESC`
	if q != nil && q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*events.Event
	for rows.Next() {
		var (
			ev         events.Event
			recordedAt int64
			kind       string
			details    sql.NullString
		)
		if err := rows.Scan(&ev.ID, &recordedAt, &kind, &details); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Time = time.Unix(0, recordedAt)
		ev.Kind = events.Kind(kind)
		if details.Valid && details.String != "" && details.String != "null" {
			if err := json.Unmarshal([]byte(details.String), &ev.Details); err != nil {
				return nil, fmt.Errorf("failed to decode event details: %w", err)
			}
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

// Prune deletes events recorded before the cutoff.
func (s *SQLiteStorage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pool_events WHERE recorded_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

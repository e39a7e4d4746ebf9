package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"uptimeboard/internal/models"
	"uptimeboard/internal/storage"
)

// HistoryStore implements storage.HistoryStore on a SQLite file.
type HistoryStore struct {
	db *sql.DB
}

var _ storage.HistoryStore = (*HistoryStore)(nil)

// New opens the database file and runs migrations.
func New(ctx context.Context, path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &HistoryStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error { return s.db.Close() }

func (s *HistoryStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	url         TEXT NOT NULL,
	checked_at  TEXT NOT NULL,
	status_code INTEGER,
	latency_ms  REAL NOT NULL,
	ok          INTEGER NOT NULL,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_url_id ON events (url, id);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append inserts events in order and trims the table to the newest limit rows.
func (s *HistoryStore) Append(ctx context.Context, events []models.CheckResult, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO events (name, url, checked_at, status_code, latency_ms, ok, error)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		var code sql.NullInt64
		if e.StatusCode != nil {
			code = sql.NullInt64{Int64: int64(*e.StatusCode), Valid: true}
		}
		var errText sql.NullString
		if e.Error != nil {
			errText = sql.NullString{String: *e.Error, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, e.Name, e.URL, e.Timestamp, code, e.LatencyMS, e.OK, errText); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if limit > 0 {
		trim := `DELETE FROM events WHERE id NOT IN (SELECT id FROM events ORDER BY id DESC LIMIT ?)`
		if _, err := tx.ExecContext(ctx, trim, limit); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Events returns the newest limit events, oldest first.
func (s *HistoryStore) Events(ctx context.Context, limit int) ([]models.CheckResult, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
SELECT name, url, checked_at, status_code, latency_ms, ok, error FROM (
	SELECT * FROM events ORDER BY id DESC LIMIT ?
) ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.CheckResult{}
	for rows.Next() {
		var (
			e       models.CheckResult
			code    sql.NullInt64
			errText sql.NullString
		)
		if err := rows.Scan(&e.Name, &e.URL, &e.Timestamp, &code, &e.LatencyMS, &e.OK, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if code.Valid {
			v := int(code.Int64)
			e.StatusCode = &v
		}
		if errText.Valid {
			v := errText.String
			e.Error = &v
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

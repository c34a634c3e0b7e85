// Package sqlite stores run records in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	steps       INTEGER NOT NULL DEFAULT 0,
	path        TEXT NOT NULL DEFAULT '[]',
	error       TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// timeLayout is fixed-width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Recorder implements ports.RunRecorder on SQLite.
type Recorder struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the database at path and applies the schema.
// The parent directory is created when missing. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Recorder, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	conn.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Recorder{conn: conn, path: path}, nil
}

// Path returns the database location.
func (r *Recorder) Path() string { return r.path }

// Close closes the database.
func (r *Recorder) Close() error {
	return r.conn.Close()
}

// Save inserts or replaces the record.
func (r *Recorder) Save(ctx context.Context, rec domain.RunRecord) error {
	path, err := json.Marshal(rec.Path)
	if err != nil {
		return fmt.Errorf("failed to marshal run path: %w", err)
	}
	var finished sql.NullString
	if rec.FinishedAt != nil {
		finished = sql.NullString{String: rec.FinishedAt.UTC().Format(timeLayout), Valid: true}
	}

	_, err = r.conn.ExecContext(ctx, `
		INSERT INTO runs (id, status, steps, path, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			steps = excluded.steps,
			path = excluded.path,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`,
		rec.ID, string(rec.Status), rec.Steps, string(path), rec.Error,
		rec.StartedAt.UTC().Format(timeLayout), finished,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads a record.
func (r *Recorder) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	var (
		rec      domain.RunRecord
		status   string
		path     string
		started  string
		finished sql.NullString
	)
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, status, steps, path, error, started_at, finished_at FROM runs WHERE id = ?`, runID,
	).Scan(&rec.ID, &status, &rec.Steps, &path, &rec.Error, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	rec.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(path), &rec.Path); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run path %s: %w", runID, err)
	}
	if len(rec.Path) == 0 {
		rec.Path = nil
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("invalid started_at for run %s: %w", runID, err)
	}
	if finished.Valid {
		at, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return nil, fmt.Errorf("invalid finished_at for run %s: %w", runID, err)
		}
		rec.FinishedAt = &at
	}
	return &rec, nil
}

// Delete removes the record. Deleting an unknown run is not an error.
func (r *Recorder) Delete(ctx context.Context, runID string) error {
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

// List returns run IDs, most recently started first.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

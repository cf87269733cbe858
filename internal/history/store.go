// Package history persists check runs to SQLite so past results can be
// reviewed without re-querying the terminals.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gatecheck/internal/check"
	"gatecheck/internal/status"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the history database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// release.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrRunNotFound indicates no stored run matches the requested identifier.
var ErrRunNotFound = errors.New("run not found")

// Run summarizes one stored check run.
type Run struct {
	ID         string
	Mode       check.Mode
	StartedAt  time.Time
	FinishedAt time.Time
	Containers int
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SaveRun stores a finished run and its per-container records.
func (s *Store) SaveRun(ctx context.Context, rep *check.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at, finished_at, containers)
         VALUES (?, ?, ?, ?, ?)`,
		rep.RunID,
		string(rep.Mode),
		rep.StartedAt.UTC().Format(time.RFC3339Nano),
		rep.FinishedAt.UTC().Format(time.RFC3339Nano),
		len(rep.Numbers),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, number := range rep.Numbers {
		record := rep.Results[number]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_results (
                run_id, position, container_number, terminal, available,
                line_operator, dimensions, location,
                customs_hold, line_hold, cbpa_hold, terminal_hold
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID,
			i,
			record.ContainerNumber,
			record.Terminal,
			record.Available,
			record.LineOperator,
			record.Dimensions,
			record.Location,
			record.CustomsHold,
			record.LineHold,
			record.CBPAHold,
			record.TerminalHold,
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", record.ContainerNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, started_at, finished_at, containers
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                   Run
			mode                  string
			startedAt, finishedAt string
		)
		if err := rows.Scan(&run.ID, &mode, &startedAt, &finishedAt, &run.Containers); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Mode = check.Mode(mode)
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunResults returns the stored records for one run in input order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]status.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT container_number, terminal, available, line_operator, dimensions,
                location, customs_hold, line_hold, cbpa_hold, terminal_hold
         FROM run_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var records []status.Record
	for rows.Next() {
		var record status.Record
		err := rows.Scan(
			&record.ContainerNumber,
			&record.Terminal,
			&record.Available,
			&record.LineOperator,
			&record.Dimensions,
			&record.Location,
			&record.CustomsHold,
			&record.LineHold,
			&record.CBPAHold,
			&record.TerminalHold,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return records, nil
}

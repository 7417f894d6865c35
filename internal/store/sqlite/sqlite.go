// Package sqlite implements store.Store on an embedded SQLite database
// using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
	"github.com/JonMunkholm/lister/internal/store/migrations"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// InsertBatchSize bounds the rows per multi-row INSERT, keeping each
// statement under SQLite's bind variable limit.
var InsertBatchSize = 500

const (
	dropScholars   = `DROP TABLE IF EXISTS scholars`
	createScholars = `CREATE TABLE scholars (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_id TEXT,
    fullname TEXT,
    course TEXT,
    year_level INTEGER,
    gpa REAL,
    units INTEGER,
    award_type TEXT
)`
	insertScholar = `INSERT INTO scholars (student_id, fullname, course, year_level, gpa, units, award_type)
VALUES (:student_id, :fullname, :course, :year_level, :gpa, :units, :award_type)`
)

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// Store is a SQLite-backed record store.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open opens the database at path. Use ":memory:" for an in-memory store.
//
// The pool is limited to one connection: an in-memory database exists per
// connection, and SQLite serializes writers anyway.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite database: %w", err)
	}

	return New(db), nil
}

// New wraps an already opened database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Up(ctx, s.db.DB, migrations.SQLite)
}

func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	return migrations.Version(ctx, s.db.DB, migrations.SQLite)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Replace drops and recreates the scholars table and inserts records, all in
// one transaction.
func (s *Store) Replace(ctx context.Context, records []parse.Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, dropScholars); err != nil {
		return fmt.Errorf("drop scholars: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createScholars); err != nil {
		return fmt.Errorf("create scholars: %w", err)
	}

	for start := 0; start < len(records); start += InsertBatchSize {
		end := min(start+InsertBatchSize, len(records))
		if _, err := tx.NamedExecContext(ctx, insertScholar, records[start:end]); err != nil {
			return fmt.Errorf("insert scholars %d-%d: %w", start, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Debug("scholars replaced", "backend", "sqlite", "records", len(records))
	return nil
}

// Query returns the records matching f in canonical order.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]parse.Record, error) {
	q, args := store.BuildQuery(f, store.Question)

	records := []parse.Record{}
	if err := s.db.SelectContext(ctx, &records, q, args...); err != nil {
		return nil, fmt.Errorf("query scholars: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scholars`); err != nil {
		return 0, fmt.Errorf("count scholars: %w", err)
	}
	return n, nil
}

// Options returns the distinct filter values present in the store.
func (s *Store) Options(ctx context.Context) (store.Options, error) {
	opts := store.Options{Years: []int{}, Courses: []string{}, Awards: []string{}}

	if err := s.db.SelectContext(ctx, &opts.Years,
		`SELECT DISTINCT year_level FROM scholars ORDER BY year_level`); err != nil {
		return store.Options{}, fmt.Errorf("distinct year levels: %w", err)
	}
	if err := s.db.SelectContext(ctx, &opts.Courses,
		`SELECT DISTINCT course FROM scholars ORDER BY course`); err != nil {
		return store.Options{}, fmt.Errorf("distinct courses: %w", err)
	}
	if err := s.db.SelectContext(ctx, &opts.Awards,
		`SELECT DISTINCT award_type FROM scholars ORDER BY award_type`); err != nil {
		return store.Options{}, fmt.Errorf("distinct awards: %w", err)
	}
	return opts, nil
}

// runRow mirrors ingestion_runs; started_at is stored as unix milliseconds.
type runRow struct {
	ID         string `db:"id"`
	FileName   string `db:"file_name"`
	RawRows    int    `db:"raw_rows"`
	Records    int    `db:"records"`
	Anomalies  int    `db:"anomalies"`
	Status     string `db:"status"`
	Error      string `db:"error"`
	DurationMS int64  `db:"duration_ms"`
	StartedAt  int64  `db:"started_at"`
}

// RecordRun appends run to the ingestion history.
func (s *Store) RecordRun(ctx context.Context, run store.Run) error {
	row := runRow{
		ID:         run.ID,
		FileName:   run.FileName,
		RawRows:    run.RawRows,
		Records:    run.Records,
		Anomalies:  run.Anomalies,
		Status:     string(run.Status),
		Error:      run.Error,
		DurationMS: run.DurationMS,
		StartedAt:  run.StartedAt.UTC().UnixMilli(),
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO ingestion_runs
    (id, file_name, raw_rows, records, anomalies, status, error, duration_ms, started_at)
VALUES
    (:id, :file_name, :raw_rows, :records, :anomalies, :status, :error, :duration_ms, :started_at)`, row)
	if err != nil {
		return fmt.Errorf("record ingestion run: %w", err)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, file_name, raw_rows, records, anomalies, status, error, duration_ms, started_at
FROM ingestion_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ingestion runs: %w", err)
	}

	runs := make([]store.Run, len(rows))
	for i, r := range rows {
		runs[i] = store.Run{
			ID:         r.ID,
			FileName:   r.FileName,
			RawRows:    r.RawRows,
			Records:    r.Records,
			Anomalies:  r.Anomalies,
			Status:     store.RunStatus(r.Status),
			Error:      r.Error,
			DurationMS: r.DurationMS,
			StartedAt:  time.UnixMilli(r.StartedAt).UTC(),
		}
	}
	return runs, nil
}

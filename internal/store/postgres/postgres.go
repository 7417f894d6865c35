// Package postgres implements store.Store on PostgreSQL through a pgx pool.
// Replace streams the new record set with the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
	"github.com/JonMunkholm/lister/internal/store/migrations"
)

const (
	dropScholars   = `DROP TABLE IF EXISTS scholars`
	createScholars = `CREATE TABLE scholars (
    id BIGSERIAL PRIMARY KEY,
    student_id TEXT,
    fullname TEXT,
    course TEXT,
    year_level INTEGER,
    gpa DOUBLE PRECISION,
    units INTEGER,
    award_type TEXT
)`
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at url and verifies the connection.
func Open(ctx context.Context, url string, cfg PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool. The store takes ownership of it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations through a database/sql
// handle borrowed from the pool.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Up(ctx, db, migrations.Postgres)
}

func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Version(ctx, db, migrations.Postgres)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Replace drops and recreates the scholars table and copies records into it,
// all in one transaction.
func (s *Store) Replace(ctx context.Context, records []parse.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, dropScholars); err != nil {
		return fmt.Errorf("drop scholars: %w", err)
	}
	if _, err := tx.Exec(ctx, createScholars); err != nil {
		return fmt.Errorf("create scholars: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{store.Table},
		store.Columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.StudentID, r.FullName, r.Course, r.YearLevel, r.GPA, r.Units, string(r.AwardType)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy scholars: %w", err)
	}
	if int(copied) != len(records) {
		return fmt.Errorf("copy scholars: copied %d of %d rows", copied, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Debug("scholars replaced", "backend", "postgres", "records", len(records))
	return nil
}

// Query returns the records matching f in canonical order.
func (s *Store) Query(ctx context.Context, f store.Filter) ([]parse.Record, error) {
	q, args := store.BuildQuery(f, store.Dollar)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query scholars: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[parse.Record])
	if err != nil {
		return nil, fmt.Errorf("scan scholars: %w", err)
	}
	if records == nil {
		records = []parse.Record{}
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scholars`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scholars: %w", err)
	}
	return n, nil
}

// Options returns the distinct filter values present in the store.
func (s *Store) Options(ctx context.Context) (store.Options, error) {
	years, err := distinct[int](ctx, s.pool, "year_level")
	if err != nil {
		return store.Options{}, err
	}
	courses, err := distinct[string](ctx, s.pool, "course")
	if err != nil {
		return store.Options{}, err
	}
	awards, err := distinct[string](ctx, s.pool, "award_type")
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{Years: years, Courses: courses, Awards: awards}, nil
}

func distinct[T any](ctx context.Context, pool *pgxpool.Pool, col string) ([]T, error) {
	q := fmt.Sprintf("SELECT DISTINCT %s FROM scholars ORDER BY %s", pgx.Identifier{col}.Sanitize(), pgx.Identifier{col}.Sanitize())
	rows, err := pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	vals, err := pgx.CollectRows(rows, pgx.RowTo[T])
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	if vals == nil {
		vals = []T{}
	}
	return vals, nil
}

// RecordRun appends run to the ingestion history.
func (s *Store) RecordRun(ctx context.Context, run store.Run) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO ingestion_runs
    (id, file_name, raw_rows, records, anomalies, status, error, duration_ms, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.FileName, run.RawRows, run.Records, run.Anomalies,
		string(run.Status), run.Error, run.DurationMS, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record ingestion run: %w", err)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, file_name, raw_rows, records, anomalies, status, error, duration_ms, started_at
FROM ingestion_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ingestion runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[store.Run])
	if err != nil {
		return nil, fmt.Errorf("scan ingestion runs: %w", err)
	}
	for i := range runs {
		runs[i].StartedAt = runs[i].StartedAt.UTC()
	}
	return runs, nil
}

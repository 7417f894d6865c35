// Package store defines the record store that holds the normalized scholar
// records and the history of ingestion runs.
//
// A store is rebuilt wholesale on every successful ingestion: Replace drops
// and recreates the scholars table and bulk-inserts the new set inside one
// transaction, so readers observe either the previous set or the new one.
// Implementations live in the sqlite and postgres subpackages.
package store

import (
	"context"
	"time"

	"github.com/JonMunkholm/lister/internal/parse"
)

// Store is the queryable holder of scholar records.
type Store interface {
	// Replace discards every stored record and stores records in their place.
	// On error the previous set is left intact.
	Replace(ctx context.Context, records []parse.Record) error

	// Query returns the records matching f in the canonical export order.
	Query(ctx context.Context, f Filter) ([]parse.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Options returns the distinct filter values present in the store.
	Options(ctx context.Context) (Options, error)

	// RecordRun appends an ingestion run to the history.
	RecordRun(ctx context.Context, run Run) error

	// Runs returns the most recent runs, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)

	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error

	// SchemaVersion returns the latest applied migration version.
	SchemaVersion(ctx context.Context) (int64, error)

	Close() error
}

// Filter restricts a query by set membership on three columns.
// An empty slice places no restriction on its column.
type Filter struct {
	Years   []int    `json:"years,omitempty"`
	Courses []string `json:"courses,omitempty"`
	Awards  []string `json:"awards,omitempty"`
}

// IsEmpty reports whether the filter selects every record.
func (f Filter) IsEmpty() bool {
	return len(f.Years) == 0 && len(f.Courses) == 0 && len(f.Awards) == 0
}

// Options lists the distinct values present for each filterable column,
// sorted ascending.
type Options struct {
	Years   []int    `json:"years"`
	Courses []string `json:"courses"`
	Awards  []string `json:"awards"`
}

// RunStatus is the outcome of an ingestion run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunEmpty     RunStatus = "empty"
	RunFailed    RunStatus = "failed"
)

// Run is one entry of the ingestion history.
type Run struct {
	ID         string    `db:"id" json:"id"`
	FileName   string    `db:"file_name" json:"file_name"`
	RawRows    int       `db:"raw_rows" json:"raw_rows"`
	Records    int       `db:"records" json:"records"`
	Anomalies  int       `db:"anomalies" json:"anomalies"`
	Status     RunStatus `db:"status" json:"status"`
	Error      string    `db:"error" json:"error,omitempty"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
}

// Duration returns the run duration.
func (r Run) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

package core

import (
	"time"

	"github.com/JonMunkholm/lister/internal/export"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

// Phase indicates the current stage of an ingestion pass.
type Phase string

const (
	PhaseStarting    Phase = "starting"
	PhaseReading     Phase = "reading"
	PhaseClassifying Phase = "classifying"
	PhaseStoring     Phase = "storing"
	PhaseComplete    Phase = "complete"
	PhaseFailed      Phase = "failed"
)

// Done reports whether the phase is terminal.
func (p Phase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Progress is a snapshot of a running ingestion pass.
type Progress struct {
	IngestID string `json:"ingest_id"`
	FileName string `json:"file_name"`
	Phase    Phase  `json:"phase"`
	// ReadPercent is how much of the upload has been read, 0-100.
	ReadPercent int    `json:"read_percent"`
	TotalRows   int    `json:"total_rows"`
	Processed   int    `json:"processed"`
	Records     int    `json:"records"`
	Anomalies   int    `json:"anomalies"`
	Error       string `json:"error,omitempty"`
}

// Percent returns how far classification has come, 0-100.
func (p Progress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	if p.TotalRows == 0 {
		return 0
	}
	return p.Processed * 100 / p.TotalRows
}

// AwardStats summarizes the records filed under one award.
type AwardStats struct {
	Award     parse.Category `json:"award"`
	Count     int            `json:"count"`
	MeanGPA   float64        `json:"mean_gpa"`
	MedianGPA float64        `json:"median_gpa"`
}

// Report is the outcome of one ingestion pass.
//
// Status is RunCompleted when the store was rebuilt, RunEmpty when the pass
// found no records and RunFailed when it could not finish. Log holds the
// pass log lines: the loaded-table line and one line per anomaly.
type Report struct {
	ID        string          `json:"id"`
	FileName  string          `json:"file_name"`
	Status    store.RunStatus `json:"status"`
	RawRows   int             `json:"raw_rows"`
	Headers   int             `json:"headers"`
	Records   int             `json:"records"`
	Awards    []AwardStats    `json:"awards"`
	Anomalies []parse.Anomaly `json:"anomalies,omitempty"`
	Log       []string        `json:"log"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// Run converts the report into its history entry.
func (r *Report) Run() store.Run {
	return store.Run{
		ID:         r.ID,
		FileName:   r.FileName,
		RawRows:    r.RawRows,
		Records:    r.Records,
		Anomalies:  len(r.Anomalies),
		Status:     r.Status,
		Error:      r.Error,
		DurationMS: r.Duration.Milliseconds(),
		StartedAt:  r.StartedAt,
	}
}

// Summary describes the current contents of the store.
type Summary struct {
	Total   int64         `json:"total"`
	Awards  []AwardStats  `json:"awards"`
	Options store.Options `json:"options"`
	LastRun *store.Run    `json:"last_run,omitempty"`
}

// FilteredExport is a filtered record set and the file name it downloads as.
type FilteredExport struct {
	FileName string
	Filter   store.Filter
	Records  []parse.Record
}

// BatchResult is the outcome of a batch export.
type BatchResult struct {
	FileName       string
	Reconciliation export.Reconciliation
}

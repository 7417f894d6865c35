package core

import (
	"context"
	"io"

	"github.com/JonMunkholm/lister/internal/export"
	"github.com/JonMunkholm/lister/internal/logging"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

// Summary reports the store size, the per-award breakdown, the available
// filter values and the latest ingestion run.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Total: total, Awards: []AwardStats{}}
	if total > 0 {
		records, err := s.store.Query(ctx, store.Filter{})
		if err != nil {
			return nil, err
		}
		sum.Awards = AwardBreakdown(records, s.opts.Rules.Labels())
	}

	if sum.Options, err = s.store.Options(ctx); err != nil {
		return nil, err
	}

	runs, err := s.store.Runs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		sum.LastRun = &runs[0]
	}
	return sum, nil
}

// FilterOptions returns the distinct filter values present in the store.
func (s *Service) FilterOptions(ctx context.Context) (store.Options, error) {
	return s.store.Options(ctx)
}

// Records returns the records matching f in export order.
func (s *Service) Records(ctx context.Context, f store.Filter) ([]parse.Record, error) {
	return s.store.Query(ctx, f)
}

// Export selects the records matching f and names the download after the
// selection.
func (s *Service) Export(ctx context.Context, f store.Filter) (*FilteredExport, error) {
	opts, err := s.store.Options(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FilteredExport{
		FileName: export.FileName(f, opts),
		Filter:   f,
		Records:  records,
	}, nil
}

// WriteCSV writes the export with the filtered column set.
func (e *FilteredExport) WriteCSV(w io.Writer) error {
	return export.WriteCSV(w, e.Records, export.FilteredColumns)
}

// Batch writes the full matrix archive to w and reconciles it against the
// store. A mismatch is logged, not returned as an error: it means some
// records fall outside the matrix.
func (s *Service) Batch(ctx context.Context, w io.Writer) (BatchResult, error) {
	records, err := s.store.Query(ctx, store.Filter{})
	if err != nil {
		return BatchResult{}, err
	}

	rec, err := export.WriteBatch(ctx, w, records, s.opts.Matrix, s.opts.Concurrency)
	if err != nil {
		return BatchResult{}, err
	}

	log := logging.FromContext(ctx)
	if rec.Match {
		log.Info("batch export reconciled", "files", rec.Files, "records", rec.Total)
	} else {
		log.Warn("batch export mismatch",
			"files", rec.Files,
			"total", rec.Total,
			"exported", rec.Exported,
			"missing", rec.Missing(),
		)
	}

	return BatchResult{FileName: export.ArchiveName, Reconciliation: rec}, nil
}

// History returns the most recent ingestion runs, newest first. A
// non-positive limit uses Options.HistoryLimit.
func (s *Service) History(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = s.opts.HistoryLimit
	}
	return s.store.Runs(ctx, limit)
}

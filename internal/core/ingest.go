package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/JonMunkholm/lister/internal/logging"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

// progressFunc receives progress mutations; nil for synchronous passes.
type progressFunc func(func(*Progress))

func (f progressFunc) track(fn func(*Progress)) {
	if f != nil {
		f(fn)
	}
}

// run executes one pass and records it in the ingestion history.
// The caller holds the limiter.
func (s *Service) run(ctx context.Context, id, fileName string, data []byte, progress progressFunc) (*Report, error) {
	ctx = logging.ContextWithIngestID(ctx, id)
	log := logging.WithFields(ctx, "file", fileName)
	log.Info("ingestion started", "bytes", len(data))

	rep := &Report{
		ID:        id,
		FileName:  fileName,
		Awards:    []AwardStats{},
		Log:       []string{},
		StartedAt: time.Now().UTC(),
	}

	err := s.pass(ctx, rep, data, progress, log)
	rep.Duration = time.Since(rep.StartedAt)

	switch {
	case err == nil:
		rep.Status = store.RunCompleted
	case errors.Is(err, ErrNoRecords):
		rep.Status = store.RunEmpty
	default:
		rep.Status = store.RunFailed
		rep.Error = err.Error()
	}

	progress.track(func(p *Progress) {
		if rep.Status == store.RunFailed {
			p.Phase = PhaseFailed
			p.Error = rep.Error
			return
		}
		p.Phase = PhaseComplete
	})

	// The history entry is written even when the pass was cancelled.
	if rerr := s.store.RecordRun(context.WithoutCancel(ctx), rep.Run()); rerr != nil {
		log.Warn("failed to record ingestion run", "error", rerr)
	}

	log.Info("ingestion finished",
		"status", rep.Status,
		"raw_rows", rep.RawRows,
		"records", rep.Records,
		"anomalies", len(rep.Anomalies),
		"duration", rep.Duration,
	)
	return rep, err
}

// pass reads, classifies and stores. The store is only touched once the
// whole table has been folded without error. A pass without records still
// empties the store so it always reflects the latest completed pass.
func (s *Service) pass(ctx context.Context, rep *Report, data []byte, progress progressFunc, log *slog.Logger) error {
	progress.track(func(p *Progress) { p.Phase = PhaseReading })

	in := parse.NewCountingReader(bytes.NewReader(data), int64(len(data)))
	in.OnProgress = func(pct int) {
		progress.track(func(p *Progress) { p.ReadPercent = pct })
	}
	rows, err := parse.ReadTable(rep.FileName, in)
	if err != nil {
		log.Error("failed to read table", "error", err)
		return fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}
	rep.RawRows = len(rows)
	s.setRaw(rep.FileName, rows)

	progress.track(func(p *Progress) {
		p.Phase = PhaseClassifying
		p.TotalRows = len(rows)
	})

	res, err := parse.IngestContext(ctx, rows, s.opts.Rules, func(done int) {
		progress.track(func(p *Progress) { p.Processed = done })
	})
	if err != nil {
		log.Error("ingestion interrupted", "error", err)
		return fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}

	rep.Headers = res.Headers
	rep.Records = len(res.Records)
	rep.Anomalies = res.Anomalies
	rep.Log = res.Log
	for _, a := range res.Anomalies {
		log.Debug("row anomaly", "row", a.Row, "reason", a.Reason)
	}

	progress.track(func(p *Progress) {
		p.Records = len(res.Records)
		p.Anomalies = len(res.Anomalies)
	})

	progress.track(func(p *Progress) { p.Phase = PhaseStoring })

	if err := s.store.Replace(ctx, res.Records); err != nil {
		log.Error("failed to store records", "error", err)
		return fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}

	if len(res.Records) == 0 {
		log.Warn("no records found", "raw_rows", len(rows), "headers", res.Headers)
		return ErrNoRecords
	}

	rep.Awards = AwardBreakdown(res.Records, s.opts.Rules.Labels())
	return nil
}

// AwardBreakdown counts records per award with GPA mean and median,
// rounded to two places. Awards are listed in order, followed by any award
// not in order; awards without records are omitted.
func AwardBreakdown(records []parse.Record, order []parse.Category) []AwardStats {
	gpas := make(map[parse.Category]stats.Float64Data)
	var seen []parse.Category
	for _, r := range records {
		if _, ok := gpas[r.AwardType]; !ok {
			seen = append(seen, r.AwardType)
		}
		gpas[r.AwardType] = append(gpas[r.AwardType], r.GPA)
	}

	awards := make([]parse.Category, 0, len(gpas))
	for _, a := range order {
		if _, ok := gpas[a]; ok {
			awards = append(awards, a)
		}
	}
	var extra []parse.Category
	for _, a := range seen {
		if !slices.Contains(order, a) {
			extra = append(extra, a)
		}
	}
	slices.Sort(extra)
	awards = append(awards, extra...)

	out := make([]AwardStats, 0, len(awards))
	for _, a := range awards {
		data := gpas[a]
		out = append(out, AwardStats{
			Award:     a,
			Count:     len(data),
			MeanGPA:   round2(stats.Mean(data)),
			MedianGPA: round2(stats.Median(data)),
		})
	}
	return out
}

// round2 rounds a statistic for display; stats errors only occur on empty
// input, which AwardBreakdown never passes.
func round2(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/lister/internal/parse"
)

// ArchiveName is the download name of the batch archive.
const ArchiveName = "All_Scholars_Lists.zip"

// DefaultConcurrency bounds how many cells are rendered at once.
const DefaultConcurrency = 4

// Reconciliation compares the store size with the rows written to the batch.
// A mismatch means some records carry a year, course or award outside the
// matrix and appear in no cell.
type Reconciliation struct {
	Files    int   `json:"files"`
	Total    int64 `json:"total"`
	Exported int64 `json:"exported"`
	Match    bool  `json:"match"`
}

// Missing returns how many stored records no cell contains.
func (r Reconciliation) Missing() int64 {
	return r.Total - r.Exported
}

// CellResult is the rendered CSV of one cell.
type CellResult struct {
	Cell Cell
	Rows int
	Data []byte
}

// Partition groups records by matrix cell, preserving their relative order.
// Records that fall outside the matrix are dropped.
func Partition(records []parse.Record, m Matrix) map[Cell][]parse.Record {
	inMatrix := make(map[Cell]struct{}, m.Size())
	for _, c := range m.Cells() {
		inMatrix[c] = struct{}{}
	}

	out := make(map[Cell][]parse.Record, m.Size())
	for _, r := range records {
		key := Cell{Year: r.YearLevel, Course: r.Course, Award: r.AwardType}
		if _, ok := inMatrix[key]; ok {
			out[key] = append(out[key], r)
		}
	}
	return out
}

// RenderCells renders every cell of m, including empty ones, with up to
// concurrency cells in flight. Results are returned in matrix order.
func RenderCells(ctx context.Context, records []parse.Record, m Matrix, concurrency int) ([]CellResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	groups := Partition(records, m)
	cells := m.Cells()
	results := make([]CellResult, len(cells))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, cell := range cells {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows := groups[cell]
			var buf bytes.Buffer
			if err := WriteCSV(&buf, rows, AllColumns); err != nil {
				return fmt.Errorf("render %s: %w", cell.FileName(), err)
			}
			results[i] = CellResult{Cell: cell, Rows: len(rows), Data: buf.Bytes()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteBatch renders the batch for records and writes it to w as a ZIP
// archive holding one CSV per cell, in matrix order.
func WriteBatch(ctx context.Context, w io.Writer, records []parse.Record, m Matrix, concurrency int) (Reconciliation, error) {
	results, err := RenderCells(ctx, records, m, concurrency)
	if err != nil {
		return Reconciliation{}, err
	}

	zw := zip.NewWriter(w)
	modified := time.Now()
	rec := Reconciliation{Total: int64(len(records))}

	for _, res := range results {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     res.Cell.FileName(),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return Reconciliation{}, fmt.Errorf("create %s: %w", res.Cell.FileName(), err)
		}
		if _, err := fw.Write(res.Data); err != nil {
			return Reconciliation{}, fmt.Errorf("write %s: %w", res.Cell.FileName(), err)
		}
		rec.Files++
		rec.Exported += int64(res.Rows)
	}

	if err := zw.Close(); err != nil {
		return Reconciliation{}, fmt.Errorf("finalize archive: %w", err)
	}

	rec.Match = rec.Total == rec.Exported
	return rec, nil
}

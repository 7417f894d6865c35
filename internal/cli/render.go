package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/export"
	"github.com/JonMunkholm/lister/internal/store"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderAwards(w io.Writer, awards []core.AwardStats) {
	if len(awards) == 0 {
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Award", "Count", "Mean GPA", "Median GPA"})
	total := 0
	for _, a := range awards {
		t.AppendRow(table.Row{a.Award, a.Count, export.FormatGPA(a.MeanGPA), export.FormatGPA(a.MedianGPA)})
		total += a.Count
	}
	t.AppendFooter(table.Row{"Total", total, "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func renderReport(w io.Writer, rep *core.Report) {
	fmt.Fprintf(w, "%s: %s in %s\n", rep.FileName, rep.Status, rep.Duration.Round(time.Millisecond))
	for _, line := range rep.Log {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d rows, %d section headers, %d records, %d anomalies\n",
		rep.RawRows, rep.Headers, rep.Records, len(rep.Anomalies))
	renderAwards(w, rep.Awards)
}

func renderSummary(w io.Writer, sum *core.Summary) {
	fmt.Fprintf(w, "%d records\n", sum.Total)
	renderAwards(w, sum.Awards)

	t := newTable(w)
	t.AppendHeader(table.Row{"Filter", "Values"})
	t.AppendRow(table.Row{"year", fmt.Sprint(sum.Options.Years)})
	t.AppendRow(table.Row{"course", fmt.Sprint(sum.Options.Courses)})
	t.AppendRow(table.Row{"award", fmt.Sprint(sum.Options.Awards)})
	t.Render()

	if sum.LastRun != nil {
		fmt.Fprintf(w, "Last ingestion: %s (%s) at %s\n",
			sum.LastRun.FileName, sum.LastRun.Status, sum.LastRun.StartedAt.Local().Format(time.DateTime))
	}
}

func renderHistory(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "(no ingestion runs)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Started", "File", "Status", "Rows", "Records", "Anomalies", "Duration", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.StartedAt.Local().Format(time.DateTime),
			r.FileName,
			r.Status,
			r.RawRows,
			r.Records,
			r.Anomalies,
			r.Duration(),
			text.Trim(r.Error, 60),
		})
	}
	t.Render()
}

func renderReconciliation(w io.Writer, path string, rec export.Reconciliation) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Archive", "Files", "Records", "Exported", "Match"})
	t.AppendRow(table.Row{path, rec.Files, rec.Total, rec.Exported, strconv.FormatBool(rec.Match)})
	t.Render()
	if !rec.Match {
		fmt.Fprintf(w, "%d records fall outside the batch matrix\n", rec.Missing())
	}
}

func renderRawPage(w io.Writer, page core.RawPage) {
	t := newTable(w)
	header := table.Row{"Row"}
	for c := 0; c < page.Width; c++ {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for i, row := range page.Rows {
		r := table.Row{page.FirstRow + i}
		for c := 0; c < page.Width; c++ {
			if c < len(row) {
				r = append(r, row[c])
			} else {
				r = append(r, "")
			}
		}
		t.AppendRow(r)
	}
	t.Render()
	fmt.Fprintf(w, "page %d of %d (%d rows)\n", page.Page, page.TotalPages, page.TotalRows)
}

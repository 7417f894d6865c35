package templates

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

var betweenTags = regexp.MustCompile(`>\s+<`)

// renderString renders and drops the whitespace templ may leave between tags.
func renderString(t *testing.T, fn func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf))
	return betweenTags.ReplaceAllString(buf.String(), "><")
}

func TestDashboard(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data := DashboardData{
		Summary: &core.Summary{
			Total: 3,
			Awards: []core.AwardStats{
				{Award: parse.CategoryDean, Count: 2, MeanGPA: 1.5, MedianGPA: 1.5},
				{Award: parse.CategoryRizal, Count: 1, MeanGPA: 1.75, MedianGPA: 1.75},
			},
			Options: store.Options{
				Years:   []int{1, 2},
				Courses: []string{"BSCS", "BS<Bio>"},
				Awards:  []string{"Dean", "Rizal"},
			},
			LastRun: &store.Run{FileName: "listing.csv", Status: store.RunCompleted, StartedAt: started},
		},
		History: []store.Run{
			{FileName: "listing.csv", Status: store.RunCompleted, RawRows: 9, Records: 3, StartedAt: started, DurationMS: 42},
			{FileName: "bad.xlsx", Status: store.RunFailed, Error: "invalid xlsx", StartedAt: started},
		},
	}

	body := renderString(t, func(b *bytes.Buffer) error {
		return Dashboard(data).Render(context.Background(), b)
	})

	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Dashboard - Lister Sorter</title>")
	assert.Contains(t, body, "<b>3</b>scholars")
	assert.Contains(t, body, "<td>Dean</td><td>2</td><td>1.5</td><td>1.5</td>")
	assert.Contains(t, body, `<option value="1">Year 1</option>`)
	assert.Contains(t, body, "BS&lt;Bio&gt;", "course names must be escaped")
	assert.NotContains(t, body, "BS<Bio>")
	assert.Contains(t, body, "All_Scholars_Lists.zip")
	assert.Contains(t, body, "invalid xlsx")
	assert.Contains(t, body, "42ms")
}

func TestDashboard_Empty(t *testing.T) {
	body := renderString(t, func(b *bytes.Buffer) error {
		return Dashboard(DashboardData{}).Render(context.Background(), b)
	})

	assert.Contains(t, body, "<b>0</b>scholars")
	assert.Contains(t, body, "No files processed yet.")
	assert.NotContains(t, body, "Mean GPA")
	assert.Contains(t, body, `<select multiple name="year"></select>`)
}

func TestDashboard_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Dashboard(DashboardData{}).Render(ctx, &buf)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestRawTable(t *testing.T) {
	rows := [][]string{
		{"", "DEAN'S LISTER"},
		{"1", "2021-0001", "<script>", "BSCS", "1", "1.25", "21"},
		{"2", "2021-0002"},
	}
	page := core.NewRawPage("listing.csv", rows, 2, 2)

	body := renderString(t, func(b *bytes.Buffer) error {
		return RawTable(page).Render(context.Background(), b)
	})

	assert.Contains(t, body, "3 rows, 7 columns")
	assert.Contains(t, body, "<tr><td>2</td><td>2</td><td>2021-0002</td>")
	assert.NotContains(t, body, "&lt;script&gt;", "page 2 holds only the last row")
	assert.Contains(t, body, `<a href="/raw?page=1">Previous</a>`)
	assert.Contains(t, body, "Page 2 of 2")
	assert.NotContains(t, body, "Next")
}

func TestRawTable_FirstPage(t *testing.T) {
	rows := [][]string{{"1", "2021-0001"}, {"2", "2021-0002"}}
	page := core.NewRawPage("listing.csv", rows, 1, 1)
	page.LoadedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	body := renderString(t, func(b *bytes.Buffer) error {
		return RawTable(page).Render(context.Background(), b)
	})

	assert.Contains(t, body, "2 rows, 2 columns, loaded 2026-03-01 09:30:00")
	assert.Contains(t, body, "<title>Raw data - Lister Sorter</title>")
	assert.Contains(t, body, `<a href="/raw?page=2">Next</a>`)
	assert.NotContains(t, body, "Previous")
}

func TestErrorAlert(t *testing.T) {
	body := renderString(t, func(b *bytes.Buffer) error {
		return ErrorAlert("Another file is being processed.", "Wait & retry.", "ING001").Render(context.Background(), b)
	})

	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "Wait &amp; retry.")
	assert.Contains(t, body, "ING001")
}

func TestMessage(t *testing.T) {
	body := renderString(t, func(b *bytes.Buffer) error {
		return Message("Something went wrong", ErrorAlert("Store unavailable.", "", "SYS001")).Render(context.Background(), b)
	})

	assert.Contains(t, body, "<title>Something went wrong - Lister Sorter</title>")
	assert.Contains(t, body, `<main><section><h2>Something went wrong</h2><div class="alert" role="alert">`)
	assert.NotContains(t, body, "<p></p>", "an empty action renders no paragraph")
}

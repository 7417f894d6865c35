package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/store"
)

const listing = `COLLEGE OF COMPUTER STUDIES,,,,,,
CHANCELLOR'S LISTER,,,,,,
1,2023-0001,"Alpha, A",BSCS,1,1.10,21
DEAN'S LISTER,,,,,,
1,2022-0002,Bravo,BSIT,2,1.20,24
2,2021-0003,Charlie,BSIS,3,1.40,18
3,2021-0004,Delta
RIZAL LISTER
1,2023-0005,Echo,BSCA,1,1.75,20
`

// workspace points the store at a fresh database and returns a directory
// holding the sample listing.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "lister.db"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "listing.csv"), []byte(listing), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestAndSummary(t *testing.T) {
	dir := workspace(t)

	out, err := run(t, "ingest", filepath.Join(dir, "listing.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "listing.csv: completed")
	assert.Contains(t, out, "Loaded table with 9 rows.")
	assert.Contains(t, out, "Error parsing row 6")
	assert.Contains(t, out, "9 rows, 3 section headers, 4 records, 1 anomalies")
	assert.Contains(t, out, "Chancellor")

	out, err = run(t, "summary", "--json")
	require.NoError(t, err)
	var sum core.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.EqualValues(t, 4, sum.Total)
	assert.Equal(t, []string{"BSCA", "BSCS", "BSIS", "BSIT"}, sum.Options.Courses)
}

func TestIngest_NoRecordsFails(t *testing.T) {
	dir := workspace(t)
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("DEAN'S LISTER\n"), 0o644))

	out, err := run(t, "ingest", empty)

	require.ErrorIs(t, err, core.ErrNoRecords)
	assert.Contains(t, out, "empty.csv: empty")
	assert.Contains(t, describe(err), "ING002")
}

func TestIngest_MissingFile(t *testing.T) {
	workspace(t)

	_, err := run(t, "ingest", "does-not-exist.csv")

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExport(t *testing.T) {
	dir := workspace(t)
	_, err := run(t, "ingest", filepath.Join(dir, "listing.csv"))
	require.NoError(t, err)

	out, err := run(t, "export", "--award", "Dean", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "student_id,fullname,course,year_level,gpa,award_type\n"+
		"2022-0002,Bravo,BSIT,2,1.2,Dean\n"+
		"2021-0003,Charlie,BSIS,3,1.4,Dean\n", out)

	path := filepath.Join(dir, "deans.csv")
	out, err = run(t, "export", "--award", "Dean", "--year", "2", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 records to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2022-0002")
}

func TestBatch(t *testing.T) {
	dir := workspace(t)
	_, err := run(t, "ingest", filepath.Join(dir, "listing.csv"))
	require.NoError(t, err)

	path := filepath.Join(dir, "all.zip")
	out, err := run(t, "batch", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "true")

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 48)
}

func TestHistory(t *testing.T) {
	dir := workspace(t)

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "(no ingestion runs)")

	_, err = run(t, "ingest", filepath.Join(dir, "listing.csv"))
	require.NoError(t, err)

	out, err = run(t, "history", "--json", "-n", "5")
	require.NoError(t, err)
	var runs []store.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunCompleted, runs[0].Status)
	assert.Equal(t, 4, runs[0].Records)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listing.csv")
	require.NoError(t, os.WriteFile(path, []byte(listing), 0o644))

	out, err := run(t, "inspect", path, "--page-size", "4", "--page", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "2023-0005")
	assert.NotContains(t, out, "2023-0001")
	assert.Contains(t, out, "page 3 of 3 (9 rows)")
	assert.NoFileExists(t, filepath.Join(dir, "lister.db"))
}

func TestMigrate(t *testing.T) {
	workspace(t)

	out, err := run(t, "migrate")

	require.NoError(t, err)
	assert.Equal(t, "sqlite store is up to date (schema version 2)\n", out)

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "sqlite store is up to date (schema version 2)\n", out)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "plain failure", describe(errors.New("plain failure")))
	assert.True(t, strings.HasPrefix(describe(core.ErrIngestionBusy), "Another"), describe(core.ErrIngestionBusy))
}

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

// These tests need a disposable database; they drop and recreate the
// scholars table.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("LISTER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LISTER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, url, PoolConfig{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestReplaceQueryOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []parse.Record{
		{StudentID: "2023-0001", FullName: "Zed", Course: "BSCS", YearLevel: 1, GPA: 1.25, Units: 21, AwardType: parse.CategoryRizal},
		{StudentID: "2023-0002", FullName: "Amy", Course: "BSCS", YearLevel: 1, GPA: 1.10, Units: 21, AwardType: parse.CategoryRizal},
		{StudentID: "2022-0003", FullName: "Ben", Course: "BSIT", YearLevel: 2, GPA: 1.40, Units: 24, AwardType: parse.CategoryDean},
	}
	require.NoError(t, s.Replace(ctx, records))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := s.Query(ctx, store.Filter{Awards: []string{"Rizal"}, Years: []int{1}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Amy", got[0].FullName)
	assert.Equal(t, parse.CategoryRizal, got[0].AwardType)

	opts, err := s.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, opts.Years)
	assert.Equal(t, []string{"BSCS", "BSIT"}, opts.Courses)
	assert.Equal(t, []string{"Dean", "Rizal"}, opts.Awards)

	require.NoError(t, s.Replace(ctx, nil))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := store.Run{
		ID:         uuid.NewString(),
		FileName:   "listers.csv",
		RawRows:    40,
		Records:    31,
		Anomalies:  2,
		Status:     store.RunCompleted,
		DurationMS: 85,
		StartedAt:  time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond),
	}
	require.NoError(t, s.RecordRun(ctx, run))

	runs, err := s.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, run.Records, runs[0].Records)
	assert.True(t, run.StartedAt.Equal(runs[0].StartedAt))
}

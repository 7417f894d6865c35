package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/lister/internal/config"
	"github.com/JonMunkholm/lister/internal/parse"
)

func TestNew_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "lister.db"),
		},
		Vocab: config.DefaultVocabulary(),
	}
	ctx := context.Background()

	a, err := New(ctx, cfg)
	require.NoError(t, err)

	rep, err := a.Service.Ingest(ctx, "list.csv", strings.NewReader(
		"DEAN'S LISTER\n1,2022-0002,Bravo,BSIT,2,1.20,24\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Records)
	require.NoError(t, a.Close(ctx))

	// The file outlives the process.
	b, err := New(ctx, cfg)
	require.NoError(t, err)
	defer b.Close(ctx)

	n, err := b.Store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Driver: "mysql"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store driver "mysql"`)
}

func TestOpenStore_PostgresBadURL(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{
		Driver: config.DriverPostgres,
		URL:    "::not a url::",
	})

	require.Error(t, err)
}

func TestServiceOptions(t *testing.T) {
	cfg := &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:     1024,
			MaxWaitTime:     2 * time.Second,
			Timeout:         time.Minute,
			ResultRetention: 30 * time.Second,
		},
		Export: config.ExportConfig{Concurrency: 8, HistoryLimit: 5, RawPageSize: 25},
		Vocab:  config.DefaultVocabulary(),
	}

	opts := ServiceOptions(cfg)

	assert.Equal(t, int64(1024), opts.MaxFileSize)
	assert.Equal(t, 2*time.Second, opts.MaxWait)
	assert.Equal(t, time.Minute, opts.Timeout)
	assert.Equal(t, 30*time.Second, opts.ResultRetention)
	assert.Equal(t, 8, opts.Concurrency)
	assert.Equal(t, 5, opts.HistoryLimit)
	assert.Equal(t, 25, opts.RawPageSize)
	assert.Equal(t, parse.DefaultRules(), opts.Rules)
	assert.Equal(t, 48, opts.Matrix.Size())
}

// Package app wires configuration, the record store and the ingestion
// service together for the server and CLI entry points.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/lister/internal/config"
	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/store"
	"github.com/JonMunkholm/lister/internal/store/postgres"
	"github.com/JonMunkholm/lister/internal/store/sqlite"
)

// App holds the long-lived components of a running process.
type App struct {
	Config  *config.Config
	Store   store.Store
	Service *core.Service
}

// New opens and migrates the configured store and builds the service over it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
	}

	return &App{
		Config:  cfg,
		Store:   st,
		Service: core.NewService(st, ServiceOptions(cfg)),
	}, nil
}

// Close drains running passes and closes the store.
func (a *App) Close(ctx context.Context) error {
	if err := a.Service.Shutdown(ctx); err != nil {
		slog.Warn("ingestion did not finish before shutdown", "error", err)
	}
	return a.Store.Close()
}

// OpenStore connects to the store selected by cfg.Driver without migrating it.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		if cfg.InsertBatchSize > 0 {
			sqlite.InsertBatchSize = cfg.InsertBatchSize
		}
		st, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("opened sqlite store", "path", cfg.Path)
		return st, nil

	case config.DriverPostgres:
		st, err := postgres.Open(ctx, cfg.URL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("connected to postgres store", "max_conns", cfg.MaxConns)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// ServiceOptions maps configuration onto service options.
func ServiceOptions(cfg *config.Config) core.Options {
	return core.Options{
		Rules:           cfg.Vocab.Rules(),
		Matrix:          cfg.Vocab.Matrix(),
		MaxFileSize:     cfg.Upload.MaxFileSize,
		MaxWait:         cfg.Upload.MaxWaitTime,
		Timeout:         cfg.Upload.Timeout,
		ResultRetention: cfg.Upload.ResultRetention,
		Concurrency:     cfg.Export.Concurrency,
		HistoryLimit:    cfg.Export.HistoryLimit,
		RawPageSize:     cfg.Export.RawPageSize,
	}
}

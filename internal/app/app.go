// Package app wires stores, analytics, the engagement tracker, the engine
// and the exporters from a config.Config. Both binaries start from here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/config"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/dvloznov/finla/internal/engine"
	"github.com/dvloznov/finla/internal/export"
	bqexport "github.com/dvloznov/finla/internal/export/bigquery"
	gcsexport "github.com/dvloznov/finla/internal/export/gcs"
	notionexport "github.com/dvloznov/finla/internal/export/notion"
	"github.com/dvloznov/finla/internal/ledger"
	"github.com/dvloznov/finla/internal/repository"
	"github.com/dvloznov/finla/internal/store/inmemory"
	"github.com/dvloznov/finla/internal/store/redisstate"
	"github.com/dvloznov/finla/internal/store/sqlite"
	"github.com/rs/zerolog"
)

// App holds the wired components.
type App struct {
	Store     repository.Store
	State     engagement.StateStore
	Clock     clock.Clock
	Analytics *ledger.Analytics
	Tracker   *engagement.Tracker
	Engine    *engine.Engine
	Exports   *export.Runner

	closers []func() error
}

// snapshotSource reads records from the store and the engagement state from
// wherever it is kept.
type snapshotSource struct {
	repository.Store
	state engagement.StateStore
}

func (s snapshotSource) LoadState(ctx context.Context) (domain.EngagementState, bool, error) {
	return s.state.LoadState(ctx)
}

// New opens the configured stores and builds every component on top of them.
// Exporters are registered only for the targets that have settings.
func New(ctx context.Context, cfg config.Config, clk clock.Clock, log zerolog.Logger) (*App, error) {
	a := &App{Clock: clk}

	store, err := openStore(ctx, cfg, clk)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	state, err := a.openState(cfg, store, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("New: %w", err)
	}
	a.State = state

	a.Analytics = ledger.New(store, clk, log)
	a.Tracker = engagement.New(state, store, clk, log)
	a.Engine = engine.New(store, a.Analytics, a.Tracker, clk, log)

	exporters, err := a.openExporters(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("New: %w", err)
	}
	a.Exports = export.NewRunner(snapshotSource{Store: store, state: state}, clk, log, exporters...)

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Str("state", cfg.Storage.State).
		Interface("export_targets", a.Exports.Targets()).
		Msg("Components ready")
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, clk clock.Clock) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Storage.Path, clk)
	case config.DriverMemory:
		return inmemory.NewStore(), nil
	}
	return nil, fmt.Errorf("storage driver %q: %w", cfg.Storage.Driver, config.ErrInvalid)
}

func (a *App) openState(cfg config.Config, store repository.Store, log zerolog.Logger) (engagement.StateStore, error) {
	switch cfg.Storage.State {
	case config.DriverSQLite:
		return store, nil
	case config.DriverMemory:
		if mem, ok := store.(*inmemory.Store); ok {
			return mem, nil
		}
		return inmemory.NewStore(), nil
	case config.DriverRedis:
		rs, err := redisstate.New(redisstate.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		}, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	}
	return nil, fmt.Errorf("state store %q: %w", cfg.Storage.State, config.ErrInvalid)
}

func (a *App) openExporters(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]export.Exporter, error) {
	var exporters []export.Exporter

	if cfg.Export.BigQuery_Project != "" {
		table, err := bqexport.NewBigQueryTable(ctx, cfg.Export.BigQuery_Project, cfg.Export.BigQuery_Dataset, cfg.Export.BigQuery_Table)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, table.Close)
		exporters = append(exporters, bqexport.New(table, log))
	}

	if cfg.Export.GCS_Bucket != "" {
		bucket, err := gcsexport.NewStorageBucket(ctx, cfg.Export.GCS_Bucket)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bucket.Close)
		exporters = append(exporters, gcsexport.New(bucket, log))
	}

	switch {
	case cfg.Export.Notion_Token != "" && cfg.Export.Notion_Database != "":
		exporters = append(exporters, notionexport.New(notionexport.NewClient(cfg.Export.Notion_Token), cfg.Export.Notion_Database, log))
	case cfg.Export.Notion_Token != "" || cfg.Export.Notion_Database != "":
		log.Warn().Msg("Notion export needs both a token and a database id; skipping")
	}

	return exporters, nil
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

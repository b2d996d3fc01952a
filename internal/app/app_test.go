package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/config"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/export"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 18, 9, 30, 0, 0, time.UTC)

func TestNew_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "finla.db")
	ctx := context.Background()

	a, err := New(ctx, cfg, clock.NewFixed(testNow), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := domain.NewTransaction{Amount: decimal.NewFromInt(120), Description: "pizza", PaymentMethod: "cash"}
	if _, err := a.Engine.AddTransaction(ctx, in); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if len(a.Exports.Targets()) != 0 {
		t.Errorf("targets = %v, want none without export settings", a.Exports.Targets())
	}
	if _, err := a.Exports.Run(ctx, export.TargetGCS); !errors.Is(err, export.ErrNotConfigured) {
		t.Errorf("Run() error = %v, want ErrNotConfigured", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// reopen and check both the log and the engagement state survived
	a, err = New(ctx, cfg, clock.NewFixed(testNow), zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer a.Close()

	txs, err := a.Engine.Transactions(ctx, 0)
	if err != nil || len(txs) != 1 {
		t.Fatalf("Transactions() = %v, %v", txs, err)
	}
	st, err := a.Tracker.Stats(ctx)
	if err != nil || st.TotalTransactions != 1 || st.Streak != 1 {
		t.Errorf("Stats() = %+v, %v", st, err)
	}
}

func TestNew_MemoryStateWithSQLiteRecords(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "finla.db")
	cfg.Storage.State = config.DriverMemory

	a, err := New(context.Background(), cfg, clock.NewFixed(testNow), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.State == a.Store {
		t.Error("memory state should not share the sqlite store")
	}
}

func TestNew_NotionNeedsBothSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Storage.State = config.DriverMemory
	cfg.Export.Notion_Token = "secret_abc"

	a, err := New(context.Background(), cfg, clock.NewFixed(testNow), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()
	if len(a.Exports.Targets()) != 0 {
		t.Errorf("targets = %v, want none", a.Exports.Targets())
	}

	cfg.Export.Notion_Database = "0123abcd"
	b, err := New(context.Background(), cfg, clock.NewFixed(testNow), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()
	if got := b.Exports.Targets(); len(got) != 1 || got[0] != export.TargetNotion {
		t.Errorf("targets = %v, want [notion]", got)
	}
}

package export

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/logger"
	"github.com/dvloznov/finla/internal/store/inmemory"
	"github.com/shopspring/decimal"
)

// recordingExporter is a hand-written Exporter that keeps the last snapshot.
type recordingExporter struct {
	target Target
	got    *Snapshot
	err    error
}

func (r *recordingExporter) Target() Target { return r.target }

func (r *recordingExporter) Export(ctx context.Context, snap Snapshot) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	r.got = &snap
	return Result{Exported: len(snap.Transactions)}, nil
}

var testNow = time.Date(2025, 6, 18, 9, 30, 0, 0, time.UTC)

func TestParseTarget(t *testing.T) {
	for _, in := range []string{"bigquery", " GCS ", "Notion"} {
		if _, err := ParseTarget(in); err != nil {
			t.Errorf("ParseTarget(%q) error = %v", in, err)
		}
	}
	if _, err := ParseTarget("s3"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("ParseTarget(s3) error = %v, want ErrUnknownTarget", err)
	}
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	store.AppendTransaction(ctx, &domain.Transaction{ID: "a", Amount: decimal.NewFromInt(5)})
	store.UpsertAccount(ctx, domain.Account{Name: "SBI"})

	gcs := &recordingExporter{target: TargetGCS}
	notion := &recordingExporter{target: TargetNotion, err: errors.New("unauthorized")}
	runner := NewRunner(store, clock.NewFixed(testNow), logger.NewWithWriter(io.Discard), gcs, notion)

	if got := runner.Targets(); len(got) != 2 || got[0] != TargetGCS || got[1] != TargetNotion {
		t.Errorf("Targets() = %v", got)
	}

	res, err := runner.Run(ctx, TargetGCS)
	if err != nil {
		t.Fatalf("Run(gcs) error = %v", err)
	}
	if res.Target != TargetGCS || res.Exported != 1 {
		t.Errorf("result = %+v", res)
	}
	if gcs.got == nil || !gcs.got.GeneratedAt.Equal(testNow) || len(gcs.got.Accounts) != 1 || gcs.got.State != nil {
		t.Errorf("snapshot = %+v", gcs.got)
	}

	if _, err := runner.Run(ctx, TargetNotion); err == nil {
		t.Error("Run(notion) expected error")
	}
	if _, err := runner.Run(ctx, TargetBigQuery); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Run(bigquery) error = %v, want ErrNotConfigured", err)
	}
}

func TestTakeSnapshot_IncludesState(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	st := domain.DefaultEngagementState()
	st.KarmaPoints = 40
	store.SaveState(ctx, st)

	snap, err := TakeSnapshot(ctx, store, clock.NewFixed(testNow))
	if err != nil {
		t.Fatalf("TakeSnapshot() error = %v", err)
	}
	if snap.State == nil || snap.State.KarmaPoints != 40 {
		t.Errorf("state = %+v", snap.State)
	}
}

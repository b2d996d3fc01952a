package bigquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/export"
	"github.com/dvloznov/finla/internal/logger"
	"github.com/shopspring/decimal"
)

// mockTable is a hand-written Table.
type mockTable struct {
	existing  map[string]bool
	inserted  [][]*TransactionRow
	queryErr  error
	insertErr error
}

func (m *mockTable) Name() string { return "proj.finla.transactions" }

func (m *mockTable) ExportedIDs(ctx context.Context) (map[string]bool, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.existing, nil
}

func (m *mockTable) Insert(ctx context.Context, rows []*TransactionRow) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, rows)
	return nil
}

var exportedAt = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func snapshotOf(n int) export.Snapshot {
	snap := export.Snapshot{GeneratedAt: exportedAt}
	for i := 0; i < n; i++ {
		snap.Transactions = append(snap.Transactions, domain.Transaction{
			ID:     fmt.Sprintf("tx-%d", i),
			Date:   civil.Date{Year: 2025, Month: 6, Day: 1 + i%28},
			Amount: decimal.NewFromInt(int64(10 + i)),
		})
	}
	return snap
}

func TestExport_SkipsExported(t *testing.T) {
	table := &mockTable{existing: map[string]bool{"tx-0": true, "tx-2": true}}
	exp := New(table, logger.NewWithWriter(io.Discard))

	res, err := exp.Export(context.Background(), snapshotOf(4))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Exported != 2 || res.Skipped != 2 {
		t.Errorf("result = %+v, want 2 exported 2 skipped", res)
	}
	if res.Location != "bigquery://proj.finla.transactions" {
		t.Errorf("location = %s", res.Location)
	}
	if len(table.inserted) != 1 || table.inserted[0][0].TransactionID != "tx-1" {
		t.Fatalf("inserted = %+v", table.inserted)
	}
}

func TestExport_Batches(t *testing.T) {
	table := &mockTable{existing: map[string]bool{}}
	exp := New(table, logger.NewWithWriter(io.Discard))

	res, err := exp.Export(context.Background(), snapshotOf(InsertBatchSize+3))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Exported != InsertBatchSize+3 {
		t.Errorf("exported = %d", res.Exported)
	}
	if len(table.inserted) != 2 || len(table.inserted[1]) != 3 {
		t.Errorf("batches = %d", len(table.inserted))
	}
}

func TestExport_Errors(t *testing.T) {
	queryFail := New(&mockTable{queryErr: errors.New("quota")}, logger.NewWithWriter(io.Discard))
	if _, err := queryFail.Export(context.Background(), snapshotOf(1)); err == nil {
		t.Error("expected query error")
	}

	insertFail := New(&mockTable{existing: map[string]bool{}, insertErr: errors.New("schema mismatch")}, logger.NewWithWriter(io.Discard))
	res, err := insertFail.Export(context.Background(), snapshotOf(1))
	if err == nil || res.Exported != 0 {
		t.Errorf("Export() = %+v, %v, want insert error", res, err)
	}
}

func TestRowFromTransaction(t *testing.T) {
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	tx := domain.Transaction{
		ID:          "a",
		Date:        civil.Date{Year: 2025, Month: 6, Day: 1},
		Amount:      decimal.RequireFromString("99.90"),
		Description: "Netflix",
		Category:    domain.CategoryEntertainment,
		Confidence:  0.89,
		CreatedAt:   created,
	}

	row := RowFromTransaction(tx, exportedAt)
	if row.Amount.Cmp(big.NewRat(999, 10)) != 0 {
		t.Errorf("amount = %s", row.Amount.FloatString(2))
	}
	if !row.Category.Valid || row.Category.StringVal != "entertainment" || !row.Confidence.Valid {
		t.Errorf("category = %+v confidence = %+v", row.Category, row.Confidence)
	}
	if row.Bank.Valid || row.PaymentMethod.Valid {
		t.Errorf("bank = %+v method = %+v, want NULL", row.Bank, row.PaymentMethod)
	}
	if !row.CreatedTS.Equal(created) || !row.ExportedTS.Equal(exportedAt) {
		t.Errorf("timestamps = %v %v", row.CreatedTS, row.ExportedTS)
	}
}

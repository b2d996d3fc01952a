package notion

import (
	"context"
	"errors"
	"io"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/export"
	"github.com/dvloznov/finla/internal/logger"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// mockService is a hand-written Service that serves pages in fixed-size chunks.
type mockService struct {
	pages     []notionapi.Page
	chunk     int
	queries   []*notionapi.DatabaseQueryRequest
	created   []notionapi.Properties
	createErr error
}

func (m *mockService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.queries = append(m.queries, req)
	start := 0
	if req.StartCursor != "" {
		for i, p := range m.pages {
			if string(p.ID) == string(req.StartCursor) {
				start = i
			}
		}
	}
	end := min(start+m.chunk, len(m.pages))
	resp := &notionapi.DatabaseQueryResponse{Results: m.pages[start:end], HasMore: end < len(m.pages)}
	if resp.HasMore {
		resp.NextCursor = notionapi.Cursor(m.pages[end].ID)
	}
	return resp, nil
}

func (m *mockService) CreatePage(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, props)
	return &notionapi.Page{ID: notionapi.ObjectID("page-new")}, nil
}

func existingPage(id, txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			PropTransactionID: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: txID}}},
		},
	}
}

func snapshot(ids ...string) export.Snapshot {
	var snap export.Snapshot
	for _, id := range ids {
		snap.Transactions = append(snap.Transactions, domain.Transaction{
			ID:          id,
			Date:        civil.Date{Year: 2025, Month: 6, Day: 18},
			Amount:      decimal.RequireFromString("250.50"),
			Description: "Swiggy dinner",
			Category:    domain.CategoryFood,
		})
	}
	return snap
}

func TestExport(t *testing.T) {
	svc := &mockService{
		chunk: 2,
		pages: []notionapi.Page{
			existingPage("p1", "tx-1"),
			existingPage("p2", "tx-2"),
			existingPage("p3", ""),
		},
	}
	exp := New(svc, "db-1", logger.NewWithWriter(io.Discard))

	res, err := exp.Export(context.Background(), snapshot("tx-1", "tx-2", "tx-3"))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Exported != 1 || res.Skipped != 2 || res.Location != "notion://db-1" {
		t.Errorf("result = %+v", res)
	}
	if len(svc.queries) != 2 || svc.queries[1].StartCursor != "p3" {
		t.Errorf("queries = %d, want paginated to p3", len(svc.queries))
	}
	if len(svc.created) != 1 {
		t.Fatalf("created = %d pages", len(svc.created))
	}
	id := svc.created[0][PropTransactionID].(notionapi.RichTextProperty)
	if id.RichText[0].Text.Content != "tx-3" {
		t.Errorf("transaction id = %+v", id)
	}
}

func TestExport_CreateFailures(t *testing.T) {
	svc := &mockService{chunk: 10, createErr: errors.New("rate limited")}
	exp := New(svc, "db-1", logger.NewWithWriter(io.Discard))

	if _, err := exp.Export(context.Background(), snapshot("tx-1")); err == nil {
		t.Error("expected error when every page fails")
	}

	res, err := exp.Export(context.Background(), export.Snapshot{})
	if err != nil || res.Exported != 0 {
		t.Errorf("empty export = %+v, %v", res, err)
	}
}

func TestProperties(t *testing.T) {
	tx := snapshot("tx-9").Transactions[0]
	tx.PaymentMethod = "gpay"

	props := Properties(tx)
	if _, ok := props[PropBank]; ok {
		t.Error("empty bank should be left out")
	}
	if props[PropPaymentMethod].(notionapi.SelectProperty).Select.Name != "gpay" {
		t.Errorf("payment method = %+v", props[PropPaymentMethod])
	}
	if props[PropAmount].(notionapi.NumberProperty).Number != 250.5 {
		t.Errorf("amount = %+v", props[PropAmount])
	}
	if props[PropCategory].(notionapi.SelectProperty).Select.Name != "food" {
		t.Errorf("category = %+v", props[PropCategory])
	}
	title := props[PropDescription].(notionapi.TitleProperty)
	if title.Title[0].Text.Content != "Swiggy dinner" {
		t.Errorf("title = %+v", title)
	}
}

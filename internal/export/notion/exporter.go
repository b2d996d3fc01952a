package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/export"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// Property names of the target database.
const (
	PropDescription   = "Description"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCategory      = "Category"
	PropPaymentMethod = "Payment Method"
	PropBank          = "Bank"
	PropTransactionID = "Transaction ID"
)

// pageSize is the maximum page size accepted by the query endpoint.
const pageSize = 100

// Exporter implements export.Exporter for a Notion database.
type Exporter struct {
	service    Service
	databaseID string
	log        zerolog.Logger
}

// New creates an Exporter writing to databaseID.
func New(service Service, databaseID string, log zerolog.Logger) *Exporter {
	return &Exporter{service: service, databaseID: databaseID, log: log}
}

// Target implements export.Exporter.
func (e *Exporter) Target() export.Target {
	return export.TargetNotion
}

// Export implements export.Exporter. A page that fails to create is logged
// and counted as neither exported nor skipped; the run continues.
func (e *Exporter) Export(ctx context.Context, snap export.Snapshot) (export.Result, error) {
	res := export.Result{Target: export.TargetNotion, Location: "notion://" + e.databaseID}

	pages, err := e.queryAllPages(ctx)
	if err != nil {
		return res, fmt.Errorf("Export: %w", err)
	}
	existing := make(map[string]bool, len(pages))
	for _, page := range pages {
		if id := transactionID(page); id != "" {
			existing[id] = true
		}
	}
	e.log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	var failed int
	for _, tx := range snap.Transactions {
		if existing[tx.ID] {
			res.Skipped++
			continue
		}
		page, err := e.service.CreatePage(ctx, e.databaseID, Properties(tx))
		if err != nil {
			e.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
			failed++
			continue
		}
		e.log.Debug().Str("transaction_id", tx.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		res.Exported++
	}

	if failed > 0 && res.Exported == 0 {
		return res, fmt.Errorf("Export: all %d page creations failed", failed)
	}
	return res, nil
}

func (e *Exporter) queryAllPages(ctx context.Context) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := e.service.QueryDatabase(ctx, e.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// Properties maps a transaction to page properties. Empty payment method and
// bank are left out.
func Properties(tx domain.Transaction) notionapi.Properties {
	date := notionapi.Date(time.Date(tx.Date.Year, tx.Date.Month, tx.Date.Day, 0, 0, 0, 0, time.UTC))
	amount, _ := tx.Amount.Float64()

	props := notionapi.Properties{
		PropDescription:   notionapi.TitleProperty{Title: richText(tx.Description)},
		PropDate:          notionapi.DateProperty{Date: &notionapi.DateObject{Start: &date}},
		PropAmount:        notionapi.NumberProperty{Number: amount},
		PropCategory:      notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Category)}},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
	}
	if tx.PaymentMethod != "" {
		props[PropPaymentMethod] = notionapi.SelectProperty{Select: notionapi.Option{Name: tx.PaymentMethod}}
	}
	if tx.Bank != "" {
		props[PropBank] = notionapi.SelectProperty{Select: notionapi.Option{Name: tx.Bank}}
	}
	return props
}

// transactionID reads the Transaction ID property of a page, or "" when absent.
func transactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}

// Ensure Exporter implements export.Exporter.
var _ export.Exporter = (*Exporter)(nil)

// Package bigquery streams the transaction log into a BigQuery table.
// Rows already present in the table are skipped, so an export can be re-run.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finla/internal/export"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// InsertBatchSize is the number of rows sent per streaming insert.
const InsertBatchSize = 500

// Table is the destination table.
type Table interface {
	// Name returns the fully qualified table name.
	Name() string

	// ExportedIDs returns the transaction IDs already in the table.
	ExportedIDs(ctx context.Context) (map[string]bool, error)

	// Insert streams rows into the table.
	Insert(ctx context.Context, rows []*TransactionRow) error
}

// BigQueryTable is the Table backed by a BigQuery client.
type BigQueryTable struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewBigQueryTable creates a client for projectID and addresses dataset.table.
func NewBigQueryTable(ctx context.Context, projectID, datasetID, tableID string) (*BigQueryTable, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTable: creating client: %w", err)
	}
	return &BigQueryTable{client: client, projectID: projectID, datasetID: datasetID, tableID: tableID}, nil
}

// Close closes the BigQuery client connection.
func (t *BigQueryTable) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Name implements Table.
func (t *BigQueryTable) Name() string {
	return fmt.Sprintf("%s.%s.%s", t.projectID, t.datasetID, t.tableID)
}

// ExportedIDs implements Table.
func (t *BigQueryTable) ExportedIDs(ctx context.Context) (map[string]bool, error) {
	q := t.client.Query(fmt.Sprintf("SELECT transaction_id FROM `%s`", t.Name()))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExportedIDs: query read: %w", err)
	}

	ids := make(map[string]bool)
	for {
		var r struct {
			TransactionID string `bigquery:"transaction_id"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExportedIDs: iter next: %w", err)
		}
		ids[r.TransactionID] = true
	}
	return ids, nil
}

// Insert implements Table.
func (t *BigQueryTable) Insert(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := t.client.DatasetInProject(t.projectID, t.datasetID).Table(t.tableID).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("Insert: inserting rows: %w", err)
	}
	return nil
}

// Exporter implements export.Exporter for BigQuery.
type Exporter struct {
	table Table
	log   zerolog.Logger
}

// New creates an Exporter writing to table.
func New(table Table, log zerolog.Logger) *Exporter {
	return &Exporter{table: table, log: log}
}

// Target implements export.Exporter.
func (e *Exporter) Target() export.Target {
	return export.TargetBigQuery
}

// Export implements export.Exporter.
func (e *Exporter) Export(ctx context.Context, snap export.Snapshot) (export.Result, error) {
	res := export.Result{Target: export.TargetBigQuery, Location: "bigquery://" + e.table.Name()}

	existing, err := e.table.ExportedIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("Export: %w", err)
	}

	var pending []*TransactionRow
	for _, tx := range snap.Transactions {
		if existing[tx.ID] {
			res.Skipped++
			continue
		}
		pending = append(pending, RowFromTransaction(tx, snap.GeneratedAt))
	}

	for i := 0; i < len(pending); i += InsertBatchSize {
		end := min(i+InsertBatchSize, len(pending))
		if err := e.table.Insert(ctx, pending[i:end]); err != nil {
			return res, fmt.Errorf("Export: batch %d-%d: %w", i, end, err)
		}
		res.Exported += end - i
		e.log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Inserted batch")
	}
	return res, nil
}

// Ensure Exporter implements export.Exporter.
var _ export.Exporter = (*Exporter)(nil)

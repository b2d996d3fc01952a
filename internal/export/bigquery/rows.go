package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
)

// TransactionRow is one row of the exported transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC

	Description   string               `bigquery:"description"`    // REQUIRED
	Category      bigquery.NullString  `bigquery:"category"`       // NULLABLE
	Confidence    bigquery.NullFloat64 `bigquery:"confidence"`     // NULLABLE
	PaymentMethod bigquery.NullString  `bigquery:"payment_method"` // NULLABLE
	Bank          bigquery.NullString  `bigquery:"bank"`           // NULLABLE

	CreatedTS  time.Time `bigquery:"created_ts"`  // REQUIRED
	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// RowFromTransaction maps a transaction to a row. Empty strings become NULL.
func RowFromTransaction(tx domain.Transaction, exportedAt time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		TransactionDate: tx.Date,
		Amount:          tx.Amount.Rat(),
		Description:     tx.Description,
		Category:        nullString(string(tx.Category)),
		Confidence:      bigquery.NullFloat64{Float64: tx.Confidence, Valid: tx.Category != ""},
		PaymentMethod:   nullString(tx.PaymentMethod),
		Bank:            nullString(tx.Bank),
		CreatedTS:       tx.CreatedAt,
		ExportedTS:      exportedAt,
	}
}

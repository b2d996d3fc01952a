// Package csvio reads and writes the transaction log as CSV with the
// header date,amount,description,category,payment_method,bank.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

// Header is the column order written by Write.
var Header = []string{"date", "amount", "description", "category", "payment_method", "bank"}

// ErrMissingColumn is returned when an import lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// RowError reports a row whose values could not be parsed. Line is the
// 1-based line in the input.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadNew parses an uploaded CSV into unclassified transactions. Columns
// are matched by header name, case-insensitively; amount and description
// are required. category and bank are ignored because both are derived
// again on import. A blank date leaves Date nil.
func ReadNew(r io.Reader) ([]domain.NewTransaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.NewTransaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ReadNew: header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"amount", "description"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("ReadNew: %q: %w", required, ErrMissingColumn)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	out := []domain.NewTransaction{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError carries its own line number
			return nil, fmt.Errorf("ReadNew: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		amount, err := decimal.NewFromString(field(record, "amount"))
		if err != nil {
			return nil, fmt.Errorf("ReadNew: %w", &RowError{Line: line, Err: fmt.Errorf("amount: %w", err)})
		}
		nt := domain.NewTransaction{
			Amount:        amount,
			Description:   field(record, "description"),
			PaymentMethod: field(record, "payment_method"),
		}
		if raw := field(record, "date"); raw != "" {
			d, err := civil.ParseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("ReadNew: %w", &RowError{Line: line, Err: fmt.Errorf("date: %w", err)})
			}
			nt.Date = &d
		}
		out = append(out, nt)
	}
	return out, nil
}

// Write writes txs with Header as the first row.
func Write(w io.Writer, txs []domain.Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("Write: header: %w", err)
	}
	for _, tx := range txs {
		record := []string{
			tx.Date.String(),
			tx.Amount.String(),
			tx.Description,
			string(tx.Category),
			tx.PaymentMethod,
			tx.Bank,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("Write: %s: %w", tx.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("Write: flush: %w", err)
	}
	return nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

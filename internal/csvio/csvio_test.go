package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

func TestReadNew(t *testing.T) {
	input := "\ufeffDate,Amount,Description,Category,Payment_Method,Bank\n" +
		"2025-06-18,250.50,Swiggy dinner,others,gpay,Ignored\n" +
		"\n" +
		",40,\"tea, samosa\",,cash,\n"

	got, err := ReadNew(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadNew() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadNew() = %d rows, want 2", len(got))
	}

	first := got[0]
	if first.Date == nil || *first.Date != (civil.Date{Year: 2025, Month: 6, Day: 18}) {
		t.Errorf("date = %v", first.Date)
	}
	if !first.Amount.Equal(decimal.RequireFromString("250.5")) || first.Description != "Swiggy dinner" || first.PaymentMethod != "gpay" {
		t.Errorf("row = %+v", first)
	}

	if got[1].Date != nil {
		t.Errorf("blank date = %v, want nil", got[1].Date)
	}
	if got[1].Description != "tea, samosa" {
		t.Errorf("description = %q", got[1].Description)
	}
}

func TestReadNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"bad amount", "date,amount,description\n2025-06-18,ten,x\n", 2},
		{"bad date", "date,amount,description\n2025-06-18,10,x\n18/06/2025,10,y\n", 3},
		{"blank lines counted", "date,amount,description\n\n\n2025-06-18,?,x\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNew(strings.NewReader(tt.input))
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("error = %v, want RowError", err)
			}
			if rowErr.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", rowErr.Line, tt.wantLine)
			}
		})
	}

	_, err := ReadNew(strings.NewReader("date,description\n2025-06-18,x\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}

	rows, err := ReadNew(strings.NewReader(""))
	if err != nil || len(rows) != 0 {
		t.Errorf("ReadNew(empty) = %v, %v", rows, err)
	}
}

func TestWriteThenRead(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "1", Date: civil.Date{Year: 2025, Month: 6, Day: 1}, Amount: decimal.RequireFromString("99.90"),
			Description: "Netflix", Category: domain.CategoryEntertainment, PaymentMethod: "card", Bank: "HDFC"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, txs); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "date,amount,description,category,payment_method,bank" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2025-06-01,99.9,Netflix,entertainment,card,HDFC" {
		t.Errorf("row = %q", lines[1])
	}

	back, err := ReadNew(&buf)
	if err != nil {
		t.Fatalf("ReadNew() error = %v", err)
	}
	if len(back) != 1 || back[0].Description != "Netflix" || !back[0].Amount.Equal(txs[0].Amount) {
		t.Errorf("ReadNew() = %+v", back)
	}
}

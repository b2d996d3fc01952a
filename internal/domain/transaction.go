package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is one expense entry in the append-only log.
// Amount is always a debit; the log has no sign convention for credits.
type Transaction struct {
	ID            string          `json:"id"`
	Date          civil.Date      `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Category      Category        `json:"category"`
	Confidence    float64         `json:"confidence"`
	PaymentMethod string          `json:"payment_method"`
	Bank          string          `json:"bank,omitempty"` // empty when the payment method matched no account
	CreatedAt     time.Time       `json:"created_at"`
}

// NewTransaction is the input accepted by the engine before a category and
// bank have been resolved. A nil Date means today.
type NewTransaction struct {
	Date          *civil.Date     `json:"date,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"payment_method"`
}

// Account is a bank account configuration entry, keyed by Name.
type Account struct {
	Name                 string          `json:"name"`
	InitialBalance       decimal.Decimal `json:"initial_balance"`
	MinBalance           decimal.Decimal `json:"min_balance"`
	LinkedPaymentAliases []string        `json:"linked_payment_aliases"`
}

// HasAlias reports whether method is one of the account's linked payment aliases.
func (a Account) HasAlias(method string) bool {
	method = strings.TrimSpace(method)
	if method == "" {
		return false
	}
	for _, alias := range a.LinkedPaymentAliases {
		if strings.EqualFold(strings.TrimSpace(alias), method) {
			return true
		}
	}
	return false
}

// Goal is a savings goal. Goals are stored and listed but not used by any
// balance, budget or achievement computation.
type Goal struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    civil.Date      `json:"target_date"`
	CreatedDate   civil.Date      `json:"created_date"`
}

// Package ledger derives balances, alerts, budget summaries, spending
// insights and a financial health score from the transaction log and the
// account configuration. Every operation re-reads its inputs and never
// returns an error: read failures produce zeroed reports marked unavailable.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/rs/zerolog"
)

// Status tells a caller whether a report was computed from data.
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusUnavailable Status = "unavailable"
)

// Outcome is embedded in every report.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func ok() Outcome { return Outcome{Status: StatusOK} }

func empty(reason string) Outcome { return Outcome{Status: StatusEmpty, Reason: reason} }

func unavailable(err error) Outcome {
	return Outcome{Status: StatusUnavailable, Reason: err.Error()}
}

// RecordSource is the read side of the store consumed by the analytics.
type RecordSource interface {
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// Analytics computes read-only reports. It is safe for concurrent use.
type Analytics struct {
	src   RecordSource
	clock clock.Clock
	log   zerolog.Logger
}

// New creates an Analytics over src.
func New(src RecordSource, clk clock.Clock, log zerolog.Logger) *Analytics {
	return &Analytics{src: src, clock: clk, log: log}
}

// snapshot is one consistent read of both record sets.
type snapshot struct {
	txs      []domain.Transaction
	accounts []domain.Account
}

func (a *Analytics) load(ctx context.Context, op string) (snapshot, error) {
	txs, err := a.src.ListTransactions(ctx)
	if err != nil {
		a.log.Warn().Err(err).Str("op", op).Msg("Transaction log unavailable")
		return snapshot{}, fmt.Errorf("%s: list transactions: %w", op, err)
	}
	accounts, err := a.src.ListAccounts(ctx)
	if err != nil {
		a.log.Warn().Err(err).Str("op", op).Msg("Account configuration unavailable")
		return snapshot{}, fmt.Errorf("%s: list accounts: %w", op, err)
	}
	sorted := append([]domain.Account(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return snapshot{txs: txs, accounts: sorted}, nil
}

// ResolveBank returns the account a payment method draws from: the account
// of the same name, else the first account (by name) listing it as an alias,
// else "".
func ResolveBank(paymentMethod string, accounts []domain.Account) string {
	if paymentMethod == "" {
		return ""
	}
	for _, acc := range accounts {
		if acc.Name == paymentMethod {
			return acc.Name
		}
	}
	sorted := append([]domain.Account(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, acc := range sorted {
		if acc.HasAlias(paymentMethod) {
			return acc.Name
		}
	}
	return ""
}

// resolvedBank prefers the bank recorded at write time when it still names
// an account, and falls back to resolving the payment method.
func resolvedBank(tx domain.Transaction, accounts []domain.Account) string {
	if tx.Bank != "" {
		for _, acc := range accounts {
			if acc.Name == tx.Bank {
				return tx.Bank
			}
		}
	}
	return ResolveBank(tx.PaymentMethod, accounts)
}

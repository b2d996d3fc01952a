package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Severity of a low-balance alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is raised for an account at or below its minimum balance.
type Alert struct {
	Bank           string          `json:"bank"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	MinBalance     decimal.Decimal `json:"min_balance"`
	Deficit        decimal.Decimal `json:"deficit"`
	Severity       Severity        `json:"severity"`
}

// BalanceReport holds per-account balances, their total and any alerts.
// Transactions whose payment method resolves to no account are left out.
type BalanceReport struct {
	Banks  map[string]decimal.Decimal `json:"banks"`
	Total  decimal.Decimal            `json:"total"`
	Alerts []Alert                    `json:"alerts"`
	Outcome
}

// Balances computes current balances and low-balance alerts.
func (a *Analytics) Balances(ctx context.Context) BalanceReport {
	snap, err := a.load(ctx, "Balances")
	if err != nil {
		return BalanceReport{Banks: map[string]decimal.Decimal{}, Alerts: []Alert{}, Outcome: unavailable(err)}
	}
	report := snap.balances()
	report.Alerts = snap.alerts(report.Banks)
	if len(snap.accounts) == 0 {
		report.Outcome = empty("no accounts configured")
	}
	return report
}

// Alerts returns only the low-balance alerts.
func (a *Analytics) Alerts(ctx context.Context) []Alert {
	return a.Balances(ctx).Alerts
}

func (s snapshot) balances() BalanceReport {
	banks := make(map[string]decimal.Decimal, len(s.accounts))
	for _, acc := range s.accounts {
		banks[acc.Name] = acc.InitialBalance
	}
	for _, tx := range s.txs {
		bank := resolvedBank(tx, s.accounts)
		if bank == "" {
			continue
		}
		banks[bank] = banks[bank].Sub(tx.Amount)
	}

	total := decimal.Zero
	for _, b := range banks {
		total = total.Add(b)
	}
	return BalanceReport{Banks: banks, Total: total, Alerts: []Alert{}, Outcome: ok()}
}

func (s snapshot) alerts(banks map[string]decimal.Decimal) []Alert {
	alerts := []Alert{}
	for _, acc := range s.accounts {
		current := banks[acc.Name]
		if current.GreaterThan(acc.MinBalance) {
			continue
		}
		severity := SeverityWarning
		if current.IsNegative() {
			severity = SeverityCritical
		}
		alerts = append(alerts, Alert{
			Bank:           acc.Name,
			CurrentBalance: current,
			MinBalance:     acc.MinBalance,
			Deficit:        acc.MinBalance.Sub(current),
			Severity:       severity,
		})
	}
	return alerts
}

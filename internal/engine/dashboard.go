package engine

import (
	"context"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/dvloznov/finla/internal/ledger"
	"github.com/dvloznov/finla/internal/quotes"
)

// RecentLimit is the number of transactions shown on the dashboard.
const RecentLimit = 5

// goodSavingsRate is the savings rate, in percent, that earns encouragement.
const goodSavingsRate = 20

// Dashboard is the home-screen view. Engagement parts are nil when the state
// could not be read; Warnings lists what was left out.
type Dashboard struct {
	Quote    quotes.DatedQuote         `json:"quote"`
	Balances ledger.BalanceReport      `json:"balances"`
	Budget   ledger.BudgetSummary      `json:"budget"`
	Insights ledger.SpendingInsights   `json:"insights"`
	Health   ledger.HealthReport       `json:"health"`
	Stats    *domain.EngagementState   `json:"stats,omitempty"`
	Level    *engagement.LevelProgress `json:"level,omitempty"`
	Weekly   *engagement.WeeklySummary `json:"weekly,omitempty"`
	Recent   []domain.Transaction      `json:"recent_transactions"`
	Warnings []string                  `json:"warnings,omitempty"`
}

// Dashboard gathers every report. It never fails: unavailable sources are
// reported through each section's status and Warnings.
func (e *Engine) Dashboard(ctx context.Context) Dashboard {
	d := Dashboard{
		Balances: e.analytics.Balances(ctx),
		Budget:   e.analytics.BudgetSummary(ctx, ""),
		Insights: e.analytics.Insights(ctx, 0),
		Health:   e.analytics.HealthScore(ctx),
		Recent:   []domain.Transaction{},
	}
	d.Quote = quotes.Daily(clock.Today(e.clock), Situation(d.Balances, d.Budget, d.Health))

	if recent, err := e.Transactions(ctx, RecentLimit); err != nil {
		d.Warnings = append(d.Warnings, err.Error())
	} else {
		d.Recent = recent
	}

	if stats, err := e.tracker.Stats(ctx); err != nil {
		d.Warnings = append(d.Warnings, err.Error())
	} else {
		level := engagement.ProgressFor(stats.KarmaPoints)
		d.Stats = &stats
		d.Level = &level
	}
	if weekly, err := e.tracker.WeeklySummary(ctx); err != nil {
		d.Warnings = append(d.Warnings, err.Error())
	} else {
		d.Weekly = &weekly
	}

	if len(d.Warnings) > 0 {
		e.log.Warn().Strs("warnings", d.Warnings).Msg("Dashboard incomplete")
	}
	return d
}

// Situation picks the quote situation for the current finances: any balance
// alert first, then an overspent budget, then a healthy savings rate.
func Situation(balances ledger.BalanceReport, budget ledger.BudgetSummary, health ledger.HealthReport) string {
	switch {
	case len(balances.Alerts) > 0:
		return quotes.SituationLowBalance
	case budget.BudgetHealth == ledger.HealthPoor:
		return quotes.SituationHighSpending
	case health.Outcome.Status == ledger.StatusOK && health.SavingsRate >= goodSavingsRate:
		return quotes.SituationGoodSavings
	}
	return ""
}

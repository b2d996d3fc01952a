package ledger

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

// BudgetHealth grades adherence to the 50/30/20 rule.
type BudgetHealth string

const (
	HealthExcellent BudgetHealth = "excellent"
	HealthGood      BudgetHealth = "good"
	HealthFair      BudgetHealth = "fair"
	HealthPoor      BudgetHealth = "poor"
	HealthUnknown   BudgetHealth = "unknown"
)

const monthLayout = "2006-01"

var (
	// DefaultBudget is used as the available amount when the total balance is not positive.
	DefaultBudget = decimal.NewFromInt(10000)

	needsShare   = decimal.NewFromFloat(0.5)
	wantsShare   = decimal.NewFromFloat(0.3)
	savingsShare = decimal.NewFromFloat(0.2)

	ratioExcellent = decimal.NewFromFloat(0.8)
	ratioGood      = decimal.NewFromInt(1)
	ratioFair      = decimal.NewFromFloat(1.2)
)

// BudgetSummary is the 50/30/20 breakdown of one month.
type BudgetSummary struct {
	Month            string          `json:"month"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	NeedsBudget      decimal.Decimal `json:"needs_budget"`
	NeedsSpent       decimal.Decimal `json:"needs_spent"`
	NeedsRemaining   decimal.Decimal `json:"needs_remaining"`
	WantsBudget      decimal.Decimal `json:"wants_budget"`
	WantsSpent       decimal.Decimal `json:"wants_spent"`
	WantsRemaining   decimal.Decimal `json:"wants_remaining"`
	SavingsTarget    decimal.Decimal `json:"savings_target"`
	SavingsActual    decimal.Decimal `json:"savings_actual"`
	SavingsShortfall decimal.Decimal `json:"savings_shortfall"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	BudgetHealth     BudgetHealth    `json:"budget_health"`
	Outcome
}

// ParseMonth validates a YYYY-MM key.
func ParseMonth(month string) (time.Month, int, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return 0, 0, fmt.Errorf("ParseMonth: %q is not YYYY-MM: %w", month, err)
	}
	return t.Month(), t.Year(), nil
}

// MonthKey formats a date as YYYY-MM.
func MonthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

func (a *Analytics) today() civil.Date {
	return civil.DateOf(a.clock.Now())
}

func (a *Analytics) currentMonth() string {
	return MonthKey(a.today())
}

// BudgetSummary computes the 50/30/20 summary for month (YYYY-MM). An empty
// month means the current one.
func (a *Analytics) BudgetSummary(ctx context.Context, month string) BudgetSummary {
	if month == "" {
		month = a.currentMonth()
	}
	if _, _, err := ParseMonth(month); err != nil {
		return emptyBudget(month, Outcome{Status: StatusEmpty, Reason: err.Error()})
	}

	snap, err := a.load(ctx, "BudgetSummary")
	if err != nil {
		return emptyBudget(month, unavailable(err))
	}
	return snap.budget(month)
}

// MonthlySpending returns the spend per category for month (YYYY-MM).
func (a *Analytics) MonthlySpending(ctx context.Context, month string) map[domain.Category]decimal.Decimal {
	if month == "" {
		month = a.currentMonth()
	}
	snap, err := a.load(ctx, "MonthlySpending")
	if err != nil {
		return map[domain.Category]decimal.Decimal{}
	}
	spend, _ := snap.monthlySpending(month)
	return spend
}

func emptyBudget(month string, outcome Outcome) BudgetSummary {
	return BudgetSummary{Month: month, BudgetHealth: HealthUnknown, Outcome: outcome}
}

// monthlySpending sums spend per category for month and reports how many
// transactions fell into it.
func (s snapshot) monthlySpending(month string) (map[domain.Category]decimal.Decimal, int) {
	spend := map[domain.Category]decimal.Decimal{}
	n := 0
	for _, tx := range s.txs {
		if MonthKey(tx.Date) != month {
			continue
		}
		spend[tx.Category] = spend[tx.Category].Add(tx.Amount)
		n++
	}
	return spend, n
}

func (s snapshot) budget(month string) BudgetSummary {
	available := s.balances().Total
	if !available.IsPositive() {
		available = DefaultBudget
	}

	needsBudget := available.Mul(needsShare)
	wantsBudget := available.Mul(wantsShare)
	savingsTarget := available.Mul(savingsShare)

	spend, count := s.monthlySpending(month)
	needsSpent := sumCategories(spend, domain.NeedsCategories)
	wantsSpent := sumCategories(spend, domain.WantsCategories)
	totalSpent := decimal.Zero
	for _, v := range spend {
		totalSpent = totalSpent.Add(v)
	}

	savingsActual := decimal.Max(available.Sub(totalSpent), decimal.Zero)

	summary := BudgetSummary{
		Month:            month,
		TotalBudget:      available,
		NeedsBudget:      needsBudget,
		NeedsSpent:       needsSpent,
		NeedsRemaining:   needsBudget.Sub(needsSpent),
		WantsBudget:      wantsBudget,
		WantsSpent:       wantsSpent,
		WantsRemaining:   wantsBudget.Sub(wantsSpent),
		SavingsTarget:    savingsTarget,
		SavingsActual:    savingsActual,
		SavingsShortfall: decimal.Max(savingsTarget.Sub(savingsActual), decimal.Zero),
		TotalSpent:       totalSpent,
		BudgetHealth:     GradeBudget(needsSpent, needsBudget, wantsSpent, wantsBudget),
		Outcome:          ok(),
	}
	if count == 0 {
		summary.Outcome = empty("no transactions in " + month)
	}
	return summary
}

func sumCategories(spend map[domain.Category]decimal.Decimal, cats []domain.Category) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(spend[c])
	}
	return total
}

// GradeBudget maps needs and wants spend-to-budget ratios to a health grade.
// A zero budget counts as a zero ratio.
func GradeBudget(needsSpent, needsBudget, wantsSpent, wantsBudget decimal.Decimal) BudgetHealth {
	needs := ratio(needsSpent, needsBudget)
	wants := ratio(wantsSpent, wantsBudget)

	switch {
	case needs.LessThanOrEqual(ratioExcellent) && wants.LessThanOrEqual(ratioExcellent):
		return HealthExcellent
	case needs.LessThanOrEqual(ratioGood) && wants.LessThanOrEqual(ratioGood):
		return HealthGood
	case needs.LessThanOrEqual(ratioFair) || wants.LessThanOrEqual(ratioFair):
		return HealthFair
	default:
		return HealthPoor
	}
}

func ratio(spent, budget decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(budget)
}

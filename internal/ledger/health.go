package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultSavingsMonths is the window used for the savings rate.
const DefaultSavingsMonths = 3

const (
	balanceScoreMax = 30.0
	budgetScoreMax  = 40
	savingsScoreMax = 30.0
)

var (
	balanceLowCeiling  = decimal.NewFromInt(10000)
	balanceHighCeiling = decimal.NewFromInt(50000)
	hundred            = decimal.NewFromInt(100)

	budgetScores = map[BudgetHealth]int{
		HealthExcellent: 40,
		HealthGood:      30,
		HealthFair:      20,
		HealthPoor:      10,
		HealthUnknown:   0,
	}
)

// SavingsRateReport is the share of estimated income left unspent over the
// last few calendar months. Income is estimated from the current total balance.
type SavingsRateReport struct {
	Months          int             `json:"months"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	EstimatedIncome decimal.Decimal `json:"estimated_income"`
	Rate            float64         `json:"savings_rate"`
	Outcome
}

// HealthReport is the composite 0-100 financial health score.
type HealthReport struct {
	Score        float64         `json:"score"`
	Grade        string          `json:"grade"`
	Status       string          `json:"status"`
	Factors      []string        `json:"factors"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	BudgetHealth BudgetHealth    `json:"budget_health"`
	SavingsRate  float64         `json:"savings_rate"`
	Outcome
}

// SavingsRate computes the savings rate over the current and previous
// months-1 calendar months. months <= 0 means DefaultSavingsMonths.
func (a *Analytics) SavingsRate(ctx context.Context, months int) SavingsRateReport {
	if months <= 0 {
		months = DefaultSavingsMonths
	}
	snap, err := a.load(ctx, "SavingsRate")
	if err != nil {
		return SavingsRateReport{Months: months, Outcome: unavailable(err)}
	}
	return snap.savingsRate(a.today(), months)
}

func (s snapshot) savingsRate(today civil.Date, months int) SavingsRateReport {
	keys := make(map[string]bool, months)
	y, m := today.Year, today.Month
	for i := 0; i < months; i++ {
		keys[MonthKey(civil.Date{Year: y, Month: m, Day: 1})] = true
		m--
		if m < time.January {
			m = time.December
			y--
		}
	}

	spent := decimal.Zero
	for _, tx := range s.txs {
		if keys[MonthKey(tx.Date)] {
			spent = spent.Add(tx.Amount)
		}
	}

	income := s.balances().Total
	report := SavingsRateReport{Months: months, TotalSpent: spent, EstimatedIncome: income, Outcome: ok()}
	if !income.IsPositive() {
		report.Outcome = empty("total balance is not positive")
		return report
	}

	rate := income.Sub(spent).Div(income).Mul(hundred).InexactFloat64()
	report.Rate = math.Max(rate, 0)
	return report
}

// HealthScore combines balance, budget adherence and savings rate.
func (a *Analytics) HealthScore(ctx context.Context) HealthReport {
	snap, err := a.load(ctx, "HealthScore")
	if err != nil {
		return HealthReport{
			Grade:        "N/A",
			Status:       "Unable to calculate",
			Factors:      []string{},
			BudgetHealth: HealthUnknown,
			Outcome:      unavailable(err),
		}
	}

	today := a.today()
	total := snap.balances().Total
	budget := snap.budget(MonthKey(today))
	savings := snap.savingsRate(today, DefaultSavingsMonths)

	balance := BalanceScore(total)
	budgetScore := budgetScores[budget.BudgetHealth]
	savingsScore := SavingsScore(savings.Rate)

	score := math.Round((balance+float64(budgetScore)+savingsScore)*10) / 10
	grade, status := Grade(score)

	report := HealthReport{
		Score:  score,
		Grade:  grade,
		Status: status,
		Factors: []string{
			fmt.Sprintf("Balance: %.1f/%.0f", balance, balanceScoreMax),
			fmt.Sprintf("Budget: %d/%d", budgetScore, budgetScoreMax),
			fmt.Sprintf("Savings: %.1f/%.0f", savingsScore, savingsScoreMax),
		},
		TotalBalance: total,
		BudgetHealth: budget.BudgetHealth,
		SavingsRate:  savings.Rate,
		Outcome:      ok(),
	}
	if len(snap.txs) == 0 && len(snap.accounts) == 0 {
		report.Outcome = empty("no accounts or transactions")
	}
	return report
}

// BalanceScore maps the total balance to 0-30: linear up to 10000, then
// scaled against 50000.
func BalanceScore(total decimal.Decimal) float64 {
	var score float64
	if total.GreaterThan(balanceLowCeiling) {
		score = total.Div(balanceHighCeiling).InexactFloat64() * balanceScoreMax
	} else {
		score = total.Div(balanceLowCeiling).InexactFloat64() * balanceScoreMax
	}
	return math.Min(math.Max(score, 0), balanceScoreMax)
}

// SavingsScore bands a savings rate percentage into 0-30.
func SavingsScore(rate float64) float64 {
	switch {
	case rate >= 20:
		return 30
	case rate >= 10:
		return 20
	case rate >= 5:
		return 15
	case rate < 0:
		return 0
	default:
		return rate
	}
}

// Grade maps a score to a letter grade and status label.
func Grade(score float64) (string, string) {
	switch {
	case score >= 80:
		return "A", "Excellent"
	case score >= 60:
		return "B", "Good"
	case score >= 40:
		return "C", "Fair"
	default:
		return "D", "Needs Improvement"
	}
}

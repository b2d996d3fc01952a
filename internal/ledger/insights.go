package ledger

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

// Trend classifies recent spending against the week before.
type Trend string

const (
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	// DefaultInsightDays is the trailing window used when none is given.
	DefaultInsightDays = 30

	trendWindow = 7
)

var (
	trendUp   = decimal.NewFromFloat(1.1)
	trendDown = decimal.NewFromFloat(0.9)

	highDailyAverage = decimal.NewFromInt(500)
	lowDailyAverage  = decimal.NewFromInt(100)
)

// categoryAdvice fires when the top category's spend exceeds Multiple times
// the daily average.
var categoryAdvice = []struct {
	Category domain.Category
	Multiple int64
	Advice   string
}{
	{domain.CategoryFood, 7, "Consider meal planning to reduce food expenses"},
	{domain.CategoryTransport, 5, "Look into monthly passes or carpooling options"},
	{domain.CategoryEntertainment, 4, "Try free entertainment options like parks or community events"},
	{domain.CategoryShopping, 10, "Implement a 24-hour waiting rule before purchases"},
}

const (
	adviceHighDaily = "Your daily spending is quite high. Consider tracking smaller expenses"
	adviceLowDaily  = "Great job keeping expenses low! Consider increasing savings rate"
)

// TopCategory is the category with the highest spend in a window.
type TopCategory struct {
	Category domain.Category `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// SpendingInsights summarizes a trailing window of spending.
type SpendingInsights struct {
	PeriodDays      int             `json:"period_days"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	DailyAverage    decimal.Decimal `json:"daily_average"`
	TopCategory     *TopCategory    `json:"top_category"`
	SpendingTrend   Trend           `json:"spending_trend"`
	Recommendations []string        `json:"recommendations"`
	Outcome
}

// Insights analyses transactions dated within the last days days, today
// included. days <= 0 means DefaultInsightDays.
func (a *Analytics) Insights(ctx context.Context, days int) SpendingInsights {
	if days <= 0 {
		days = DefaultInsightDays
	}
	snap, err := a.load(ctx, "Insights")
	if err != nil {
		return emptyInsights(days, unavailable(err))
	}
	return snap.insights(a.today(), days)
}

func emptyInsights(days int, outcome Outcome) SpendingInsights {
	return SpendingInsights{
		PeriodDays:      days,
		SpendingTrend:   TrendInsufficientData,
		Recommendations: []string{},
		Outcome:         outcome,
	}
}

func (s snapshot) insights(today civil.Date, days int) SpendingInsights {
	start := today.AddDays(-days)

	daily := map[civil.Date]decimal.Decimal{}
	byCategory := map[domain.Category]decimal.Decimal{}
	var order []domain.Category
	total := decimal.Zero

	for _, tx := range s.txs {
		if !tx.Date.After(start) || tx.Date.After(today) {
			continue
		}
		if _, seen := byCategory[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		daily[tx.Date] = daily[tx.Date].Add(tx.Amount)
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	if !total.IsPositive() {
		return emptyInsights(days, empty("no spending in the last period"))
	}

	avg := total.Div(decimal.NewFromInt(int64(days)))

	// first-seen order breaks ties
	top := &TopCategory{Category: order[0], Amount: byCategory[order[0]]}
	for _, c := range order[1:] {
		if byCategory[c].GreaterThan(top.Amount) {
			top = &TopCategory{Category: c, Amount: byCategory[c]}
		}
	}

	return SpendingInsights{
		PeriodDays:      days,
		TotalSpent:      total,
		DailyAverage:    avg,
		TopCategory:     top,
		SpendingTrend:   spendingTrend(daily),
		Recommendations: recommendations(top, avg),
		Outcome:         ok(),
	}
}

// spendingTrend compares the mean of the last seven days with data against
// the seven before them.
func spendingTrend(daily map[civil.Date]decimal.Decimal) Trend {
	if len(daily) < 2*trendWindow {
		return TrendInsufficientData
	}

	dates := make([]civil.Date, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	n := len(dates)
	recent := decimal.Zero
	previous := decimal.Zero
	for _, d := range dates[n-trendWindow:] {
		recent = recent.Add(daily[d])
	}
	for _, d := range dates[n-2*trendWindow : n-trendWindow] {
		previous = previous.Add(daily[d])
	}
	// both sides are sums over seven days, so the means compare like the sums
	switch {
	case recent.GreaterThan(previous.Mul(trendUp)):
		return TrendIncreasing
	case recent.LessThan(previous.Mul(trendDown)):
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func recommendations(top *TopCategory, avg decimal.Decimal) []string {
	recs := []string{}
	if top != nil {
		for _, rule := range categoryAdvice {
			if top.Category != rule.Category {
				continue
			}
			if top.Amount.GreaterThan(avg.Mul(decimal.NewFromInt(rule.Multiple))) {
				recs = append(recs, rule.Advice)
			}
			break
		}
	}

	switch {
	case avg.GreaterThan(highDailyAverage):
		recs = append(recs, adviceHighDaily)
	case avg.LessThan(lowDailyAverage):
		recs = append(recs, adviceLowDaily)
	}
	return recs
}

package ledger

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryTotal is the all-time spend of one category.
type CategoryTotal struct {
	Category domain.Category `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// DailyTotal is the spend of one calendar day.
type DailyTotal struct {
	Date   civil.Date      `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// ChartData holds the series behind the dashboard charts.
type ChartData struct {
	Categories []CategoryTotal `json:"categories"`
	Daily      []DailyTotal    `json:"daily"`
	Outcome
}

// ChartData totals the whole log by category (table order) and by day (ascending).
func (a *Analytics) ChartData(ctx context.Context) ChartData {
	snap, err := a.load(ctx, "ChartData")
	if err != nil {
		return ChartData{Categories: []CategoryTotal{}, Daily: []DailyTotal{}, Outcome: unavailable(err)}
	}

	byCategory := map[domain.Category]decimal.Decimal{}
	byDay := map[civil.Date]decimal.Decimal{}
	for _, tx := range snap.txs {
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		byDay[tx.Date] = byDay[tx.Date].Add(tx.Amount)
	}

	out := ChartData{Categories: []CategoryTotal{}, Daily: []DailyTotal{}, Outcome: ok()}
	for _, c := range domain.AllCategories {
		if v, found := byCategory[c]; found {
			out.Categories = append(out.Categories, CategoryTotal{Category: c, Amount: v})
			delete(byCategory, c)
		}
	}
	// categories written by older versions that are no longer in the taxonomy
	var rest []domain.Category
	for c := range byCategory {
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		out.Categories = append(out.Categories, CategoryTotal{Category: c, Amount: byCategory[c]})
	}

	for d, v := range byDay {
		out.Daily = append(out.Daily, DailyTotal{Date: d, Amount: v})
	}
	sort.Slice(out.Daily, func(i, j int) bool { return out.Daily[i].Date.Before(out.Daily[j].Date) })

	if len(snap.txs) == 0 {
		out.Outcome = empty("no transactions")
	}
	return out
}

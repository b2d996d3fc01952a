package ledger

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/logger"
	"github.com/shopspring/decimal"
)

// mockSource is a hand-written RecordSource for tests.
type mockSource struct {
	txs      []domain.Transaction
	accounts []domain.Account
	err      error
}

func (m *mockSource) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.txs, nil
}

func (m *mockSource) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.accounts, nil
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestAnalytics(src RecordSource) *Analytics {
	return New(src, clock.NewFixed(testNow), logger.NewWithWriter(io.Discard))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func tx(date civil.Date, amount string, category domain.Category, method string) domain.Transaction {
	return domain.Transaction{
		Date:          date,
		Amount:        dec(amount),
		Category:      category,
		PaymentMethod: method,
		Description:   string(category),
	}
}

func account(name, initial, min string, aliases ...string) domain.Account {
	return domain.Account{Name: name, InitialBalance: dec(initial), MinBalance: dec(min), LinkedPaymentAliases: aliases}
}

func assertDec(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}

func TestBalances(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("A", "1000", "100")},
		txs: []domain.Transaction{
			tx(day(2025, 6, 1), "200", domain.CategoryFood, "A"),
			tx(day(2025, 6, 2), "300", domain.CategoryShopping, "A"),
		},
	}

	report := newTestAnalytics(src).Balances(context.Background())
	assertDec(t, "balance(A)", report.Banks["A"], "500")
	assertDec(t, "total", report.Total, "500")
	if len(report.Alerts) != 0 {
		t.Errorf("alerts = %+v, want none", report.Alerts)
	}
	if report.Status != StatusOK {
		t.Errorf("status = %s, want ok", report.Status)
	}

	src.accounts[0].InitialBalance = dec("150")
	report = newTestAnalytics(src).Balances(context.Background())
	if len(report.Alerts) != 1 {
		t.Fatalf("alerts = %+v, want one", report.Alerts)
	}
	alert := report.Alerts[0]
	assertDec(t, "current", alert.CurrentBalance, "-350")
	assertDec(t, "deficit", alert.Deficit, "450")
	if alert.Severity != SeverityCritical {
		t.Errorf("severity = %s, want critical", alert.Severity)
	}
}

func TestBalances_WarningAtMinimum(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("A", "300", "200"), account("B", "500", "100")},
		txs:      []domain.Transaction{tx(day(2025, 6, 1), "100", domain.CategoryFood, "A")},
	}

	alerts := newTestAnalytics(src).Alerts(context.Background())
	if len(alerts) != 1 || alerts[0].Bank != "A" {
		t.Fatalf("alerts = %+v, want one for A", alerts)
	}
	if alerts[0].Severity != SeverityWarning {
		t.Errorf("severity = %s, want warning", alerts[0].Severity)
	}
	assertDec(t, "deficit", alerts[0].Deficit, "0")
}

func TestBalances_AliasAndUnresolved(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{
			account("SBI", "5000", "0"),
			account("HDFC", "2000", "0", "gpay", "PhonePe"),
		},
		txs: []domain.Transaction{
			tx(day(2025, 6, 1), "100", domain.CategoryFood, "GPay"),
			tx(day(2025, 6, 1), "50", domain.CategoryFood, "phonepe"),
			tx(day(2025, 6, 1), "999", domain.CategoryFood, "cash"),
			tx(day(2025, 6, 1), "10", domain.CategoryFood, "SBI"),
		},
	}

	report := newTestAnalytics(src).Balances(context.Background())
	assertDec(t, "HDFC", report.Banks["HDFC"], "1850")
	assertDec(t, "SBI", report.Banks["SBI"], "4990")
	assertDec(t, "total", report.Total, "6840")
	if _, found := report.Banks["cash"]; found {
		t.Error("unresolved payment method appeared as a bank")
	}
}

func TestBalances_RecordedBankWins(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("SBI", "1000", "0"), account("HDFC", "1000", "0", "gpay")},
	}
	recorded := tx(day(2025, 6, 1), "100", domain.CategoryFood, "gpay")
	recorded.Bank = "SBI"
	stale := tx(day(2025, 6, 1), "40", domain.CategoryFood, "gpay")
	stale.Bank = "Closed Bank"
	src.txs = []domain.Transaction{recorded, stale}

	report := newTestAnalytics(src).Balances(context.Background())
	assertDec(t, "SBI", report.Banks["SBI"], "900")
	assertDec(t, "HDFC", report.Banks["HDFC"], "960")
}

func TestResolveBank(t *testing.T) {
	accounts := []domain.Account{
		account("Zeta", "0", "0", "upi"),
		account("Alpha", "0", "0", "upi"),
		account("upi", "0", "0"),
	}
	tests := []struct {
		method string
		want   string
	}{
		{"upi", "upi"},
		{"Alpha", "Alpha"},
		{"UPI", "Alpha"},
		{"", ""},
		{"card", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := ResolveBank(tt.method, accounts); got != tt.want {
				t.Errorf("ResolveBank(%q) = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestGradeBudget(t *testing.T) {
	tests := []struct {
		name                    string
		needsSpent, needsBudget string
		wantsSpent, wantsBudget string
		want                    BudgetHealth
	}{
		{"both under 0.8", "75", "100", "60", "100", HealthExcellent},
		{"both at 0.8", "80", "100", "80", "100", HealthExcellent},
		{"both under 1.0", "90", "100", "95", "100", HealthGood},
		{"one over 1.0", "110", "100", "50", "100", HealthFair},
		{"one within 1.2", "130", "100", "119", "100", HealthFair},
		{"both over 1.2", "130", "100", "121", "100", HealthPoor},
		{"zero budgets", "50", "0", "50", "0", HealthExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeBudget(dec(tt.needsSpent), dec(tt.needsBudget), dec(tt.wantsSpent), dec(tt.wantsBudget))
			if got != tt.want {
				t.Errorf("GradeBudget() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBudgetSummary(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("SBI", "20000", "0")},
		txs: []domain.Transaction{
			tx(day(2025, 6, 1), "1000", domain.CategoryFood, "SBI"),
			tx(day(2025, 6, 3), "600", domain.CategoryEntertainment, "SBI"),
			tx(day(2025, 6, 4), "400", domain.CategoryEducation, "SBI"),
			tx(day(2025, 5, 20), "5000", domain.CategoryFood, "SBI"),
		},
	}

	s := newTestAnalytics(src).BudgetSummary(context.Background(), "")
	if s.Month != "2025-06" {
		t.Errorf("month = %s, want 2025-06", s.Month)
	}
	assertDec(t, "total_budget", s.TotalBudget, "13000")
	assertDec(t, "needs_budget", s.NeedsBudget, "6500")
	assertDec(t, "wants_budget", s.WantsBudget, "3900")
	assertDec(t, "savings_target", s.SavingsTarget, "2600")
	assertDec(t, "needs_spent", s.NeedsSpent, "1000")
	assertDec(t, "needs_remaining", s.NeedsRemaining, "5500")
	assertDec(t, "wants_spent", s.WantsSpent, "600")
	assertDec(t, "total_spent", s.TotalSpent, "2000")
	assertDec(t, "savings_actual", s.SavingsActual, "11000")
	assertDec(t, "savings_shortfall", s.SavingsShortfall, "0")
	if s.BudgetHealth != HealthExcellent {
		t.Errorf("budget_health = %s, want excellent", s.BudgetHealth)
	}
	if s.Status != StatusOK {
		t.Errorf("status = %s, want ok", s.Status)
	}

	may := newTestAnalytics(src).BudgetSummary(context.Background(), "2025-05")
	assertDec(t, "may needs_spent", may.NeedsSpent, "5000")
	if may.BudgetHealth != HealthExcellent {
		t.Errorf("may budget_health = %s, want excellent", may.BudgetHealth)
	}
}

func TestBudgetSummary_DefaultBudget(t *testing.T) {
	src := &mockSource{
		txs: []domain.Transaction{tx(day(2025, 6, 1), "9000", domain.CategoryShopping, "cash")},
	}

	s := newTestAnalytics(src).BudgetSummary(context.Background(), "2025-06")
	assertDec(t, "total_budget", s.TotalBudget, "10000")
	assertDec(t, "wants_budget", s.WantsBudget, "3000")
	assertDec(t, "savings_actual", s.SavingsActual, "1000")
	assertDec(t, "savings_shortfall", s.SavingsShortfall, "1000")
	// wants ratio 3.0, needs ratio 0
	if s.BudgetHealth != HealthFair {
		t.Errorf("budget_health = %s, want fair", s.BudgetHealth)
	}
}

func TestBudgetSummary_EmptyAndInvalidMonth(t *testing.T) {
	a := newTestAnalytics(&mockSource{})

	s := a.BudgetSummary(context.Background(), "2024-01")
	if s.Status != StatusEmpty {
		t.Errorf("status = %s, want empty", s.Status)
	}
	if s.BudgetHealth != HealthExcellent {
		t.Errorf("budget_health = %s, want excellent with no spend", s.BudgetHealth)
	}

	s = a.BudgetSummary(context.Background(), "june")
	if s.BudgetHealth != HealthUnknown || !s.TotalBudget.IsZero() {
		t.Errorf("invalid month summary = %+v, want zeroed unknown", s)
	}
}

func TestUnavailableSource(t *testing.T) {
	a := newTestAnalytics(&mockSource{err: errors.New("disk on fire")})
	ctx := context.Background()

	b := a.Balances(ctx)
	if b.Status != StatusUnavailable || len(b.Banks) != 0 || !b.Total.IsZero() {
		t.Errorf("Balances() = %+v, want zeroed unavailable", b)
	}

	s := a.BudgetSummary(ctx, "")
	if s.Status != StatusUnavailable || s.BudgetHealth != HealthUnknown || !s.TotalSpent.IsZero() {
		t.Errorf("BudgetSummary() = %+v, want zeroed unknown", s)
	}
	if s.Month != "2025-06" {
		t.Errorf("BudgetSummary().Month = %s, want current month", s.Month)
	}

	i := a.Insights(ctx, 0)
	if i.Status != StatusUnavailable || i.PeriodDays != 30 || i.TopCategory != nil {
		t.Errorf("Insights() = %+v, want zeroed unavailable", i)
	}

	h := a.HealthScore(ctx)
	if h.Grade != "N/A" || h.Status != "Unable to calculate" || h.Score != 0 || h.BudgetHealth != HealthUnknown {
		t.Errorf("HealthScore() = %+v, want N/A", h)
	}

	c := a.ChartData(ctx)
	if c.Outcome.Status != StatusUnavailable || len(c.Categories) != 0 {
		t.Errorf("ChartData() = %+v, want unavailable", c)
	}
}

func dailySeries(start civil.Date, amounts []string, category domain.Category) []domain.Transaction {
	var txs []domain.Transaction
	for i, a := range amounts {
		txs = append(txs, tx(start.AddDays(i), a, category, "cash"))
	}
	return txs
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestInsights_Trend(t *testing.T) {
	start := day(2025, 6, 2)
	tests := []struct {
		name    string
		amounts []string
		want    Trend
	}{
		{"increasing", append(repeat("100", 7), repeat("200", 7)...), TrendIncreasing},
		{"decreasing", append(repeat("200", 7), repeat("100", 7)...), TrendDecreasing},
		{"stable", append(repeat("100", 7), repeat("105", 7)...), TrendStable},
		{"exactly ten percent up is stable", append(repeat("100", 7), repeat("110", 7)...), TrendStable},
		{"thirteen days", repeat("100", 13), TrendInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{txs: dailySeries(start.AddDays(14-len(tt.amounts)), tt.amounts, domain.CategoryFood)}
			got := newTestAnalytics(src).Insights(context.Background(), 30)
			if got.SpendingTrend != tt.want {
				t.Errorf("trend = %s, want %s", got.SpendingTrend, tt.want)
			}
		})
	}
}

func TestInsights_Totals(t *testing.T) {
	start := day(2025, 6, 2)
	src := &mockSource{txs: dailySeries(start, append(repeat("100", 7), repeat("200", 7)...), domain.CategoryFood)}
	src.txs = append(src.txs,
		tx(day(2025, 5, 16), "5000", domain.CategoryShopping, "cash"), // just outside the window
		tx(day(2025, 6, 16), "5000", domain.CategoryShopping, "cash"), // future
	)

	got := newTestAnalytics(src).Insights(context.Background(), 30)
	assertDec(t, "total_spent", got.TotalSpent, "2100")
	assertDec(t, "daily_average", got.DailyAverage, "70")
	if got.TopCategory == nil || got.TopCategory.Category != domain.CategoryFood {
		t.Fatalf("top_category = %+v, want food", got.TopCategory)
	}
	assertDec(t, "top amount", got.TopCategory.Amount, "2100")

	want := []string{
		"Consider meal planning to reduce food expenses",
		"Great job keeping expenses low! Consider increasing savings rate",
	}
	if len(got.Recommendations) != len(want) {
		t.Fatalf("recommendations = %v, want %v", got.Recommendations, want)
	}
	for i := range want {
		if got.Recommendations[i] != want[i] {
			t.Errorf("recommendations[%d] = %q, want %q", i, got.Recommendations[i], want[i])
		}
	}
}

func TestInsights_WindowIncludesToday(t *testing.T) {
	src := &mockSource{txs: []domain.Transaction{
		tx(day(2025, 6, 15), "40", domain.CategorySnacks, "cash"),
		tx(day(2025, 6, 9), "60", domain.CategorySnacks, "cash"),
		tx(day(2025, 6, 8), "1000", domain.CategorySnacks, "cash"),
	}}

	got := newTestAnalytics(src).Insights(context.Background(), 7)
	assertDec(t, "total_spent", got.TotalSpent, "100")
	if got.PeriodDays != 7 {
		t.Errorf("period_days = %d, want 7", got.PeriodDays)
	}
}

func TestInsights_HighSpending(t *testing.T) {
	src := &mockSource{txs: []domain.Transaction{
		tx(day(2025, 6, 10), "20000", domain.CategoryShopping, "cash"),
	}}

	got := newTestAnalytics(src).Insights(context.Background(), 30)
	want := []string{
		"Implement a 24-hour waiting rule before purchases",
		"Your daily spending is quite high. Consider tracking smaller expenses",
	}
	if len(got.Recommendations) != 2 || got.Recommendations[0] != want[0] || got.Recommendations[1] != want[1] {
		t.Errorf("recommendations = %v, want %v", got.Recommendations, want)
	}
	if got.SpendingTrend != TrendInsufficientData {
		t.Errorf("trend = %s, want insufficient_data", got.SpendingTrend)
	}
}

func TestInsights_TopCategoryTieKeepsFirstSeen(t *testing.T) {
	src := &mockSource{txs: []domain.Transaction{
		tx(day(2025, 6, 10), "100", domain.CategoryTransport, "cash"),
		tx(day(2025, 6, 11), "100", domain.CategoryFood, "cash"),
	}}

	got := newTestAnalytics(src).Insights(context.Background(), 30)
	if got.TopCategory == nil || got.TopCategory.Category != domain.CategoryTransport {
		t.Errorf("top_category = %+v, want transport", got.TopCategory)
	}
}

func TestInsights_NoSpending(t *testing.T) {
	got := newTestAnalytics(&mockSource{}).Insights(context.Background(), 30)
	if got.Status != StatusEmpty || got.TopCategory != nil || len(got.Recommendations) != 0 {
		t.Errorf("Insights() = %+v, want empty", got)
	}
}

func TestSavingsRate(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("SBI", "10000", "0")},
		txs: []domain.Transaction{
			tx(day(2025, 6, 1), "500", domain.CategoryFood, "SBI"),
			tx(day(2025, 5, 1), "500", domain.CategoryFood, "SBI"),
			tx(day(2025, 3, 31), "1000", domain.CategoryFood, "SBI"),
		},
	}

	got := newTestAnalytics(src).SavingsRate(context.Background(), 0)
	if got.Months != 3 {
		t.Errorf("months = %d, want 3", got.Months)
	}
	assertDec(t, "total_spent", got.TotalSpent, "1000")
	assertDec(t, "estimated_income", got.EstimatedIncome, "8000")
	if got.Rate != 87.5 {
		t.Errorf("rate = %v, want 87.5", got.Rate)
	}
}

func TestSavingsRate_YearBoundary(t *testing.T) {
	snap := snapshot{
		accounts: []domain.Account{account("SBI", "1000", "0")},
		txs: []domain.Transaction{
			tx(day(2024, 11, 30), "100", domain.CategoryFood, "SBI"),
			tx(day(2024, 10, 31), "100", domain.CategoryFood, "SBI"),
		},
	}

	got := snap.savingsRate(day(2025, 1, 5), 3)
	assertDec(t, "total_spent", got.TotalSpent, "100")
}

func TestSavingsRate_NeverNegative(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("SBI", "1000", "0")},
		txs:      []domain.Transaction{tx(day(2025, 6, 1), "900", domain.CategoryFood, "SBI")},
	}

	// income 100, spent 900
	got := newTestAnalytics(src).SavingsRate(context.Background(), 3)
	if got.Rate != 0 {
		t.Errorf("rate = %v, want 0", got.Rate)
	}
}

func TestHealthScore(t *testing.T) {
	src := &mockSource{accounts: []domain.Account{account("SBI", "60000", "0")}}

	got := newTestAnalytics(src).HealthScore(context.Background())
	if got.Score != 100 || got.Grade != "A" || got.Status != "Excellent" {
		t.Errorf("HealthScore() = %+v, want 100/A", got)
	}
	want := []string{"Balance: 30.0/30", "Budget: 40/40", "Savings: 30.0/30"}
	for i := range want {
		if got.Factors[i] != want[i] {
			t.Errorf("factors[%d] = %q, want %q", i, got.Factors[i], want[i])
		}
	}
}

func TestHealthScore_Struggling(t *testing.T) {
	src := &mockSource{
		accounts: []domain.Account{account("SBI", "5000", "0")},
		txs:      []domain.Transaction{tx(day(2025, 6, 1), "4000", domain.CategoryFood, "SBI")},
	}

	got := newTestAnalytics(src).HealthScore(context.Background())
	// balance 3.0 + budget fair 20 + savings 0
	if got.Score != 23 || got.Grade != "D" || got.Status != "Needs Improvement" {
		t.Errorf("HealthScore() = %+v, want 23/D", got)
	}
	if got.BudgetHealth != HealthFair {
		t.Errorf("budget_health = %s, want fair", got.BudgetHealth)
	}
}

func TestBalanceScore(t *testing.T) {
	tests := []struct {
		total string
		want  float64
	}{
		{"-5000", 0},
		{"0", 0},
		{"5000", 15},
		{"10000", 30},
		{"25000", 15},
		{"100000", 30},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			if got := BalanceScore(dec(tt.total)); got != tt.want {
				t.Errorf("BalanceScore(%s) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func TestSavingsScoreAndGrade(t *testing.T) {
	if got := SavingsScore(3.5); got != 3.5 {
		t.Errorf("SavingsScore(3.5) = %v, want 3.5", got)
	}
	if got := SavingsScore(12); got != 20 {
		t.Errorf("SavingsScore(12) = %v, want 20", got)
	}
	if g, _ := Grade(79.9); g != "B" {
		t.Errorf("Grade(79.9) = %s, want B", g)
	}
	if g, _ := Grade(40); g != "C" {
		t.Errorf("Grade(40) = %s, want C", g)
	}
}

func TestChartData(t *testing.T) {
	src := &mockSource{txs: []domain.Transaction{
		tx(day(2025, 6, 3), "30", domain.CategorySnacks, "cash"),
		tx(day(2025, 6, 1), "100", domain.CategoryFood, "cash"),
		tx(day(2025, 6, 3), "70", domain.CategoryFood, "cash"),
		tx(day(2025, 6, 2), "5", domain.Category("legacy"), "cash"),
	}}

	got := newTestAnalytics(src).ChartData(context.Background())
	if len(got.Categories) != 3 {
		t.Fatalf("categories = %+v, want 3", got.Categories)
	}
	if got.Categories[0].Category != domain.CategoryFood || got.Categories[2].Category != "legacy" {
		t.Errorf("categories order = %+v", got.Categories)
	}
	assertDec(t, "food", got.Categories[0].Amount, "170")

	if len(got.Daily) != 3 || got.Daily[0].Date != day(2025, 6, 1) || got.Daily[2].Date != day(2025, 6, 3) {
		t.Errorf("daily = %+v, want ascending three days", got.Daily)
	}
	assertDec(t, "2025-06-03", got.Daily[2].Amount, "100")
}

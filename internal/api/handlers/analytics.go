package handlers

import (
	"net/http"

	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/engine"
	"github.com/dvloznov/finla/internal/ledger"
	"github.com/rs/zerolog"
)

// AnalyticsHandler serves the ledger reports. The reports never fail; a
// storage problem shows up in their status field, so every endpoint answers
// 200 once its parameters parse.
type AnalyticsHandler struct {
	analytics *ledger.Analytics
	engine    *engine.Engine
	log       zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *ledger.Analytics, eng *engine.Engine, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		engine:    eng,
		log:       log,
	}
}

// Balances handles GET /api/balances
func (h *AnalyticsHandler) Balances(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.analytics.Balances(r.Context()))
}

// Alerts handles GET /api/alerts
func (h *AnalyticsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.analytics.Alerts(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// Budget handles GET /api/budget?month=YYYY-MM
func (h *AnalyticsHandler) Budget(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" {
		if _, _, err := ledger.ParseMonth(month); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, h.analytics.BudgetSummary(r.Context(), month))
}

// MonthlySpending handles GET /api/spending?month=YYYY-MM
func (h *AnalyticsHandler) MonthlySpending(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" {
		if _, _, err := ledger.ParseMonth(month); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, h.analytics.MonthlySpending(r.Context(), month))
}

// Insights handles GET /api/insights?days=N
func (h *AnalyticsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days", ledger.DefaultInsightDays)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.analytics.Insights(r.Context(), days))
}

// SavingsRate handles GET /api/savings-rate?months=N
func (h *AnalyticsHandler) SavingsRate(w http.ResponseWriter, r *http.Request) {
	months, ok := queryInt(w, r, "months", ledger.DefaultSavingsMonths)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.analytics.SavingsRate(r.Context(), months))
}

// Health handles GET /api/health-score
func (h *AnalyticsHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.analytics.HealthScore(r.Context()))
}

// ChartData handles GET /api/chart-data
func (h *AnalyticsHandler) ChartData(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.analytics.ChartData(r.Context()))
}

// Dashboard handles GET /api/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.engine.Dashboard(r.Context()))
}

// Package api assembles the HTTP surface of finla.
package api

import (
	"net/http"

	"github.com/dvloznov/finla/internal/api/handlers"
	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/dvloznov/finla/internal/engine"
	"github.com/dvloznov/finla/internal/export"
	"github.com/dvloznov/finla/internal/jobs"
	"github.com/dvloznov/finla/internal/ledger"
	"github.com/dvloznov/finla/internal/repository"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Engine    *engine.Engine
	Analytics *ledger.Analytics
	Tracker   *engagement.Tracker
	Accounts  repository.AccountRepository
	Goals     repository.GoalRepository
	Clock     clock.Clock

	// Publisher and Jobs may be nil when exports are disabled.
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	Targets   []export.Target

	CORSOrigin string
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(d Deps, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	txHandler := handlers.NewTransactionsHandler(d.Engine, d.Clock, log)
	accountsHandler := handlers.NewAccountsHandler(d.Accounts, log)
	goalsHandler := handlers.NewGoalsHandler(d.Engine, d.Goals, log)
	analyticsHandler := handlers.NewAnalyticsHandler(d.Analytics, d.Engine, log)
	engagementHandler := handlers.NewEngagementHandler(d.Tracker, log)
	quotesHandler := handlers.NewQuotesHandler(d.Clock)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Transactions
	mux.HandleFunc("GET /api/transactions", txHandler.ListTransactions)
	mux.HandleFunc("POST /api/transactions", txHandler.AddTransaction)
	mux.HandleFunc("POST /api/transactions/import", txHandler.ImportTransactions)
	mux.HandleFunc("GET /api/transactions/export", txHandler.ExportCSV)
	mux.HandleFunc("POST /api/classify", txHandler.Classify)
	mux.HandleFunc("GET /api/categories", handlers.ListCategories)

	// Accounts and goals
	mux.HandleFunc("GET /api/accounts", accountsHandler.ListAccounts)
	mux.HandleFunc("PUT /api/accounts", accountsHandler.UpsertAccount)
	mux.HandleFunc("DELETE /api/accounts/{name}", accountsHandler.DeleteAccount)
	mux.HandleFunc("GET /api/goals", goalsHandler.ListGoals)
	mux.HandleFunc("POST /api/goals", goalsHandler.AddGoal)

	// Analytics
	mux.HandleFunc("GET /api/balances", analyticsHandler.Balances)
	mux.HandleFunc("GET /api/alerts", analyticsHandler.Alerts)
	mux.HandleFunc("GET /api/budget", analyticsHandler.Budget)
	mux.HandleFunc("GET /api/spending", analyticsHandler.MonthlySpending)
	mux.HandleFunc("GET /api/insights", analyticsHandler.Insights)
	mux.HandleFunc("GET /api/savings-rate", analyticsHandler.SavingsRate)
	mux.HandleFunc("GET /api/health-score", analyticsHandler.Health)
	mux.HandleFunc("GET /api/chart-data", analyticsHandler.ChartData)
	mux.HandleFunc("GET /api/dashboard", analyticsHandler.Dashboard)

	// Engagement
	mux.HandleFunc("GET /api/engagement/stats", engagementHandler.Stats)
	mux.HandleFunc("GET /api/engagement/level", engagementHandler.Level)
	mux.HandleFunc("GET /api/engagement/achievements", engagementHandler.Achievements)
	mux.HandleFunc("GET /api/engagement/weekly", engagementHandler.Weekly)
	mux.HandleFunc("GET /api/engagement/leaderboard", engagementHandler.Leaderboard)
	mux.HandleFunc("POST /api/engagement/streak", engagementHandler.CheckStreak)
	mux.HandleFunc("POST /api/engagement/freeze", engagementHandler.UseFreeze)

	// Quotes
	mux.HandleFunc("GET /api/quotes/daily", quotesHandler.Daily)
	mux.HandleFunc("GET /api/quotes/weekly", quotesHandler.Weekly)
	mux.HandleFunc("GET /api/quotes/search", quotesHandler.Search)
	mux.HandleFunc("GET /api/quotes/categories", quotesHandler.Categories)
	mux.HandleFunc("GET /api/quotes/category/{category}", quotesHandler.ByCategory)
	mux.HandleFunc("GET /api/quotes/author/{author}", quotesHandler.ByAuthor)
	mux.HandleFunc("GET /api/quotes/collection/{name}", quotesHandler.FromCollection)
	mux.HandleFunc("GET /api/quotes/random", quotesHandler.Random)

	// Exports and jobs
	if d.Publisher != nil && d.Jobs != nil {
		exportsHandler := handlers.NewExportsHandler(d.Publisher, d.Targets, log)
		jobsHandler := handlers.NewJobsHandler(d.Jobs, log)

		mux.HandleFunc("GET /api/exports", exportsHandler.ListTargets)
		mux.HandleFunc("POST /api/exports", exportsHandler.EnqueueExport)
		mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
		mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)
	}

	origin := d.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(origin),
	)
}

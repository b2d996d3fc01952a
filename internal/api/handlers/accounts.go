package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engine"
	"github.com/dvloznov/finla/internal/repository"
	"github.com/rs/zerolog"
)

// AccountsHandler handles bank account endpoints.
type AccountsHandler struct {
	repo repository.AccountRepository
	log  zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(repo repository.AccountRepository, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		repo: repo,
		log:  log,
	}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repo.ListAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// UpsertAccount handles PUT /api/accounts
func (h *AccountsHandler) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	var acc domain.Account
	if err := json.NewDecoder(r.Body).Decode(&acc); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	acc.Name = strings.TrimSpace(acc.Name)
	if acc.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if acc.LinkedPaymentAliases == nil {
		acc.LinkedPaymentAliases = []string{}
	}

	if err := h.repo.UpsertAccount(r.Context(), acc); err != nil {
		h.log.Error().Err(err).Str("account", acc.Name).Msg("Failed to save account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save account")
		return
	}

	h.log.Info().Str("account", acc.Name).Msg("Account saved")
	middleware.WriteJSON(w, http.StatusOK, acc)
}

// DeleteAccount handles DELETE /api/accounts/{name}
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.repo.DeleteAccount(r.Context(), name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.log.Error().Err(err).Str("account", name).Msg("Failed to delete account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GoalsHandler handles savings goal endpoints.
type GoalsHandler struct {
	engine *engine.Engine
	repo   repository.GoalRepository
	log    zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(eng *engine.Engine, repo repository.GoalRepository, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{
		engine: eng,
		repo:   repo,
		log:    log,
	}
}

// ListGoals handles GET /api/goals
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.repo.ListGoals(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list goals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": goals,
		"count": len(goals),
	})
}

// AddGoal handles POST /api/goals
func (h *GoalsHandler) AddGoal(w http.ResponseWriter, r *http.Request) {
	var g domain.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.engine.AddGoal(r.Context(), g)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidGoal) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to add goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to add goal")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, saved)
}

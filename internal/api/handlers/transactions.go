package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/classifier"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/csvio"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engine"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MaxImportBytes caps the size of a CSV import body.
const MaxImportBytes = 4 << 20

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	engine *engine.Engine
	clock  clock.Clock
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(eng *engine.Engine, clk clock.Clock, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		engine: eng,
		clock:  clk,
		log:    log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	txs, err := h.engine.Transactions(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// AddTransaction handles POST /api/transactions
func (h *TransactionsHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.NewTransaction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.engine.AddTransaction(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, err, "Failed to add transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, res)
}

// ImportTransactions handles POST /api/transactions/import with a CSV body.
func (h *TransactionsHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MaxImportBytes)

	rows, err := csvio.ReadNew(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Import file too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(rows) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Import file has no rows")
		return
	}

	res, err := h.engine.ImportTransactions(r.Context(), rows)
	if err != nil {
		h.writeEngineError(w, err, "Failed to import transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, res)
}

// ExportCSV handles GET /api/transactions/export. Rows keep insertion order.
func (h *TransactionsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := h.engine.TransactionLog(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	var buf bytes.Buffer
	if err := csvio.Write(&buf, txs); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	filename := fmt.Sprintf("finla_transactions_%s.csv", h.clock.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Classify handles POST /api/classify. Nothing is stored.
func (h *TransactionsHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Description is required")
		return
	}

	res := classifier.Classify(req.Description, req.Amount)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"category":   res.Category,
		"confidence": res.Confidence,
		"info":       classifier.Info(res.Category),
	})
}

func (h *TransactionsHandler) writeEngineError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, engine.ErrInvalidAmount) {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg(msg)
	middleware.WriteError(w, http.StatusInternalServerError, msg)
}

// queryInt reads a non-negative integer query parameter. On a malformed value
// it writes a 400 and returns false.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return n, true
}

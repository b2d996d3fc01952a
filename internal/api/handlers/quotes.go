package handlers

import (
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/classifier"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/quotes"
)

// QuotesHandler serves the motivational quotes. All picks except Random
// depend only on the current date.
type QuotesHandler struct {
	clock clock.Clock
}

// NewQuotesHandler creates a new quotes handler.
func NewQuotesHandler(clk clock.Clock) *QuotesHandler {
	return &QuotesHandler{clock: clk}
}

// Daily handles GET /api/quotes/daily?situation=
func (h *QuotesHandler) Daily(w http.ResponseWriter, r *http.Request) {
	situation := r.URL.Query().Get("situation")
	middleware.WriteJSON(w, http.StatusOK, quotes.Daily(clock.Today(h.clock), situation))
}

// Weekly handles GET /api/quotes/weekly
func (h *QuotesHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes.Weekly(clock.Today(h.clock)),
	})
}

// ByCategory handles GET /api/quotes/category/{category}
func (h *QuotesHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, quotes.ByCategory(r.PathValue("category"), clock.Today(h.clock)))
}

// ByAuthor handles GET /api/quotes/author/{author}
func (h *QuotesHandler) ByAuthor(w http.ResponseWriter, r *http.Request) {
	list := quotes.ByAuthor(r.PathValue("author"))
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": list,
		"count":  len(list),
	})
}

// FromCollection handles GET /api/quotes/collection/{name}
func (h *QuotesHandler) FromCollection(w http.ResponseWriter, r *http.Request) {
	q, err := quotes.FromCollection(quotes.Collection(r.PathValue("name")), clock.Today(h.clock))
	if errors.Is(err, quotes.ErrUnknownCollection) {
		middleware.WriteError(w, http.StatusNotFound, "Unknown quote collection")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, q)
}

// Random handles GET /api/quotes/random. Each request seeds its own source.
func (h *QuotesHandler) Random(w http.ResponseWriter, r *http.Request) {
	rng := rand.New(rand.NewSource(h.clock.Now().UnixNano()))
	middleware.WriteJSON(w, http.StatusOK, quotes.Random(rng))
}

// Search handles GET /api/quotes/search?q=
func (h *QuotesHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	list := quotes.Search(q)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": list,
		"count":  len(list),
	})
}

// Categories handles GET /api/quotes/categories
func (h *QuotesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": quotes.Categories(),
	})
}

// ListCategories handles GET /api/categories, the spending categories with
// their display info.
func ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := classifier.Categories()
	infos := make([]classifier.CategoryInfo, 0, len(cats))
	for _, c := range cats {
		infos = append(infos, classifier.Info(c))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": infos,
		"count":      len(infos),
	})
}

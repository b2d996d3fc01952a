package handlers

import (
	"net/http"

	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/rs/zerolog"
)

// EngagementHandler handles streak, karma and achievement endpoints.
type EngagementHandler struct {
	tracker *engagement.Tracker
	log     zerolog.Logger
}

// NewEngagementHandler creates a new engagement handler.
func NewEngagementHandler(tracker *engagement.Tracker, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		tracker: tracker,
		log:     log,
	}
}

// Stats handles GET /api/engagement/stats
func (h *EngagementHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.tracker.Stats(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to load engagement state")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

// Level handles GET /api/engagement/level
func (h *EngagementHandler) Level(w http.ResponseWriter, r *http.Request) {
	progress, err := h.tracker.LevelProgress(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to load level progress")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, progress)
}

// Achievements handles GET /api/engagement/achievements?earned=true
func (h *EngagementHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	earnedOnly := r.URL.Query().Get("earned") == "true"

	list, err := h.tracker.Achievements(r.Context(), earnedOnly)
	if err != nil {
		h.fail(w, err, "Failed to list achievements")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": list,
		"count":        len(list),
	})
}

// Weekly handles GET /api/engagement/weekly
func (h *EngagementHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.WeeklySummary(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to build weekly summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Leaderboard handles GET /api/engagement/leaderboard
func (h *EngagementHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entry, err := h.tracker.Leaderboard(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to build leaderboard")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, entry)
}

// CheckStreak handles POST /api/engagement/streak
func (h *EngagementHandler) CheckStreak(w http.ResponseWriter, r *http.Request) {
	res, err := h.tracker.UpdateStreak(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to update streak")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// UseFreeze handles POST /api/engagement/freeze
func (h *EngagementHandler) UseFreeze(w http.ResponseWriter, r *http.Request) {
	used, err := h.tracker.UseStreakFreeze(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to use streak freeze")
		return
	}
	if !used {
		middleware.WriteError(w, http.StatusConflict, "No streak freezes left")
		return
	}

	st, err := h.tracker.Stats(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to load engagement state")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"used":                true,
		"streak_freeze_count": st.StreakFreezeCount,
	})
}

func (h *EngagementHandler) fail(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	middleware.WriteError(w, http.StatusInternalServerError, msg)
}

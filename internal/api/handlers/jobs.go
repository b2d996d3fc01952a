package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/finla/internal/api/middleware"
	"github.com/dvloznov/finla/internal/export"
	"github.com/dvloznov/finla/internal/jobs"
	"github.com/rs/zerolog"
)

// ExportsHandler enqueues export jobs.
type ExportsHandler struct {
	publisher jobs.Publisher
	targets   []export.Target
	log       zerolog.Logger
}

// NewExportsHandler creates a new exports handler. targets lists the
// destinations that are configured.
func NewExportsHandler(publisher jobs.Publisher, targets []export.Target, log zerolog.Logger) *ExportsHandler {
	return &ExportsHandler{
		publisher: publisher,
		targets:   targets,
		log:       log,
	}
}

// ListTargets handles GET /api/exports
func (h *ExportsHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets := h.targets
	if targets == nil {
		targets = []export.Target{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"targets": targets,
	})
}

// EnqueueExport handles POST /api/exports
func (h *ExportsHandler) EnqueueExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := export.ParseTarget(req.Target)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.configured(target) {
		middleware.WriteError(w, http.StatusConflict, "Export target "+string(target)+" is not configured")
		return
	}

	job := &jobs.ExportJob{Target: target}
	if err := h.publisher.PublishExport(r.Context(), job); err != nil {
		if errors.Is(err, jobs.ErrQueueClosed) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Export queue is shutting down")
			return
		}
		h.log.Error().Err(err).Str("target", string(target)).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("target", string(target)).Msg("Export job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.JobID,
		"status": job.Status,
	})
}

func (h *ExportsHandler) configured(target export.Target) bool {
	for _, t := range h.targets {
		if t == target {
			return true
		}
	}
	return false
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Target: export.Target(query.Get("target")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	var ok bool
	if filter.Limit, ok = queryInt(w, r, "limit", 0); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, r, "offset", 0); !ok {
		return
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

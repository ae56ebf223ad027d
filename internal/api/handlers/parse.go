package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/api/middleware"
	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/jobs"
	"github.com/dvloznov/family-budget/internal/parser"
	"github.com/dvloznov/family-budget/internal/storage"
)

// ParseHandler turns smart-input lines into normalized commands.
type ParseHandler struct {
	parser    *parser.Parser
	catalog   *catalog
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewParseHandler creates a new parse handler.
func NewParseHandler(p *parser.Parser, store storage.Store, c *cache.Cache, publisher jobs.Publisher, log zerolog.Logger) *ParseHandler {
	return &ParseHandler{
		parser:    p,
		catalog:   &catalog{store: store, cache: c},
		publisher: publisher,
		log:       log,
	}
}

type parseRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
}

// Parse handles POST /api/parse. The parse result, including a parse-level
// error, comes back as data with status 200: the client shows the message
// and leaves the pending input for the user to edit and resubmit.
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	names, err := h.catalog.categoryNames(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load category names")
		// The parser falls back to its default vocabulary.
		names = nil
	}

	result := h.parser.ParseInput(ctx, req.Text, names)
	if result.Failed() {
		h.log.Info().Str("input", req.Text).Str("error", result.Err.Message).Msg("Parse failed")
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// ParseAsync handles POST /api/parse/async. It enqueues the parse so the
// completion call runs off the request path; the client polls the job.
func (h *ParseHandler) ParseAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	names, err := h.catalog.categoryNames(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load category names")
		names = nil
	}

	job := &jobs.ParseInputJob{
		Text:            req.Text,
		KnownCategories: names,
		UserID:          req.UserID,
		Status:          jobs.JobStatusPending,
	}

	if err := h.publisher.PublishParseInput(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue parse job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parse job")
		return
	}

	// A worker may already own the job; only JobID (written on this goroutine
	// before the enqueue) is safe to read here. The response status is the
	// publish-time status, which is always pending.
	jobID := job.JobID
	h.log.Info().Str("job_id", jobID).Msg("Parse job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(jobs.JobStatusPending),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
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

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/api/middleware"
	"github.com/dvloznov/po-agents/internal/infra/bigquery"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/jobs"
	"github.com/dvloznov/po-agents/internal/pipeline"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
	"github.com/dvloznov/po-agents/internal/storage"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// MaxUploadBytes caps uploaded order documents.
const MaxUploadBytes = 20 << 20

// OrdersHandler handles purchase order endpoints.
type OrdersHandler struct {
	deps      pipeline.Deps
	publisher jobs.Publisher
	uploader  storage.Service
	bucket    string
	log       zerolog.Logger
}

// NewOrdersHandler creates a new orders handler. deps.Recorder may be nil;
// uploader and bucket are only needed for uploads.
func NewOrdersHandler(deps pipeline.Deps, publisher jobs.Publisher, uploader storage.Service, bucket string, log zerolog.Logger) *OrdersHandler {
	return &OrdersHandler{
		deps:      deps,
		publisher: publisher,
		uploader:  uploader,
		bucket:    bucket,
		log:       log,
	}
}

// Evaluate handles POST /api/orders/evaluate. The body is a summary or a
// full purchase order; the response is the approval result.
func (h *OrdersHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	summary, err := readSummary(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := pipeline.EvaluateSummary(r.Context(), h.deps, "api", summary)
	if err != nil {
		h.log.Error().Err(err).Str("po_number", summary.PONumber).Msg("Failed to evaluate order")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to evaluate order")
		return
	}

	if report.DecisionID != "" {
		w.Header().Set("X-Decision-ID", report.DecisionID)
	}
	middleware.WriteJSON(w, http.StatusOK, report.Approval)
}

// Audit handles POST /api/orders/audit.
func (h *OrdersHandler) Audit(w http.ResponseWriter, r *http.Request) {
	summary, err := readSummary(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := purchaseorder.DefaultAuditOptions()
	if h.deps.Rules != nil {
		opts = h.deps.Rules.Audit
	}
	findings := purchaseorder.Audit(summary, opts)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"poNumber":    summary.PONumber,
		"findings":    findings,
		"hasProblems": purchaseorder.HasProblems(findings),
	})
}

// EnqueueIntake handles POST /api/orders/intake with body {"source": "gs://..."}.
// Only GCS URIs are accepted; local paths are a CLI feature.
func (h *OrdersHandler) EnqueueIntake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source is required")
		return
	}
	if _, _, err := storage.ParseGCSURI(req.Source); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "source must be a gs://bucket/object URI")
		return
	}

	h.enqueue(w, r, req.Source)
}

// Upload handles POST /api/orders/upload?filename=... The raw body is
// stored in the configured bucket and an intake job is enqueued for it.
func (h *OrdersHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil || h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Document storage is not configured")
		return
	}

	filename := path.Base(r.URL.Query().Get("filename"))
	if filename == "" || filename == "." || filename == "/" {
		middleware.WriteError(w, http.StatusBadRequest, "filename is required")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxUploadBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Empty document")
		return
	}
	if len(data) > MaxUploadBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Document too large")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = intake.MIMETypeFromName(filename)
	}

	prefix := "uploads/" + time.Now().UTC().Format("2006/01/02")
	object := storage.ObjectName(prefix, uuid.New().String()+"-"+filename)
	if err := h.uploader.UploadBytes(r.Context(), h.bucket, object, contentType, data); err != nil {
		h.log.Error().Err(err).Str("object", object).Msg("Failed to upload document")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload document")
		return
	}

	h.log.Info().Str("object", object).Int("bytes", len(data)).Msg("Document uploaded")
	h.enqueue(w, r, storage.URI(h.bucket, object))
}

func (h *OrdersHandler) enqueue(w http.ResponseWriter, r *http.Request, source string) {
	job := &jobs.ProcessOrderJob{Source: source}
	if err := h.publisher.PublishProcessOrder(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("source", source).Msg("Failed to enqueue order job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue order job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("source", source).Msg("Order job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"source": source,
		"status": string(job.Status),
	})
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
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
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
		Source: query.Get("source"),
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

// DecisionsHandler serves the decision ledger.
type DecisionsHandler struct {
	repo bigquery.DecisionRepository
	log  zerolog.Logger
}

// NewDecisionsHandler creates a decisions handler. A nil repo means the
// ledger is disabled.
func NewDecisionsHandler(repo bigquery.DecisionRepository, log zerolog.Logger) *DecisionsHandler {
	return &DecisionsHandler{repo: repo, log: log}
}

// ListDecisions handles GET /api/decisions?limit=N
func (h *DecisionsHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Decision ledger is not configured")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	decisions, err := h.repo.ListDecisions(r.Context(), bigquery.NormalizeLimit(limit))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list decisions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list decisions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": decisions,
		"count":     len(decisions),
	})
}

// readSummary decodes a summary, or a full order reduced to its summary.
func readSummary(r *http.Request) (purchaseorder.Summary, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return purchaseorder.Summary{}, errors.New("failed to read body")
	}

	summary, err := purchaseorder.DecodeInput(body)
	if errors.Is(err, purchaseorder.ErrInvalidOrder) {
		return purchaseorder.Summary{}, err
	}
	if err != nil {
		return purchaseorder.Summary{}, errors.New("invalid purchase order summary")
	}
	return summary, nil
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

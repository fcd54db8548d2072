package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/silentcut/silentcut-api/internal/job"
	"github.com/silentcut/silentcut-api/internal/media"
	"github.com/silentcut/silentcut-api/internal/pipeline"
)

// DependencyChecker reports external tool availability for the system report.
type DependencyChecker interface {
	Check(ctx context.Context) media.Dependencies
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.TrimService
	deps               DependencyChecker
	defaults           pipeline.Options
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateJob only creates the job and returns immediately
// without starting background processing.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// WithTrimDefaults sets the options applied when a request leaves them unset.
func WithTrimDefaults(defaults pipeline.Options) HandlerOption {
	return func(h *Handlers) {
		h.defaults = defaults
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.TrimService, deps DependencyChecker, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		deps:               deps,
		defaults:           pipeline.DefaultOptions(),
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// System handles GET /system requests. It probes the external tools and
// reports availability together with the configured trim defaults.
func (h *Handlers) System(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SystemResponse{
		Dependencies: h.deps.Check(r.Context()),
		Defaults:     h.defaults,
	})
}

// CreateJob handles POST /jobs requests.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	// Fast-path rejection while a run is active. Two concurrent creates can
	// both pass this check; the loser's job is failed by the service when
	// it cannot acquire the run slot.
	if h.service.Busy() {
		writeError(w, http.StatusConflict, "a trim run is already active", "RUN_ACTIVE")
		return
	}

	input := job.TrimInput{
		InputPath:   req.InputPath,
		InputBase64: req.InputBase64,
		OutputPath:  req.OutputPath,
		Options:     h.resolveOptions(req),
		PushToS3:    req.PushToS3,
	}

	createdJob, err := h.service.CreateJob(r.Context(), input)
	if err != nil {
		if errors.Is(err, job.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
			return
		}
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// Start processing in background with a detached context
	// Use context.WithoutCancel to prevent cancellation when the request ends
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string) {
			_, processErr := h.service.ProcessExistingJob(ctx, jobID)
			if processErr != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID)
	}

	h.logger.Info("job created",
		slog.String("job_id", createdJob.ID),
		slog.String("input", createdJob.InputPath),
		slog.String("output", createdJob.OutputPath),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:         createdJob.ID,
		Status:     string(createdJob.Status),
		OutputPath: createdJob.OutputPath,
	})
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(foundJob))
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelJob handles POST /jobs/{id}/cancel requests.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	err := h.service.Cancel(r.Context(), jobID)
	switch {
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		return
	case errors.Is(err, job.ErrJobFinished):
		writeError(w, http.StatusConflict, "job already finished", "JOB_FINISHED")
		return
	case err != nil:
		h.logger.Error("failed to cancel job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to cancel job", "JOB_CANCEL_FAILED")
		return
	}

	current, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusAccepted, CancelJobResponse{
		ID:     current.ID,
		Status: string(current.Status),
	})
}

// resolveOptions merges request options over the configured defaults.
func (h *Handlers) resolveOptions(req CreateJobRequest) pipeline.Options {
	opts := h.defaults
	if req.NoiseFloorDB != nil {
		opts.NoiseFloorDB = *req.NoiseFloorDB
	}
	if req.MinSilenceSec != nil {
		opts.MinSilenceSec = *req.MinSilenceSec
	}
	if req.PreferHardware != nil {
		opts.PreferHardware = *req.PreferHardware
	}
	if req.QualityPreset != "" {
		opts.QualityPreset = req.QualityPreset
	}
	return opts
}

func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:       j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Message:  j.Message,
		Error:    j.Error,
		Result:   j.Result,
	}
	if j.Status == job.StatusCompleted {
		resp.OutputPath = j.OutputPath
		resp.ResultURL = j.ResultURL
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

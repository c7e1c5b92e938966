package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/reelhouse/transcoder/internal/domain"
	"github.com/reelhouse/transcoder/internal/jobs"
	"github.com/reelhouse/transcoder/internal/metrics"
	"github.com/reelhouse/transcoder/internal/pipeline"
)

// CodeJobNotFound marks a status query against an evicted or unknown job
// id. Polling clients treat it differently from a failed job: they retry
// a few times, then report the conversion as lost.
const CodeJobNotFound = "JOB_NOT_FOUND"

// QualityCatalog reads and removes persisted rendition rows for a movie.
type QualityCatalog interface {
	ListByMovieID(ctx context.Context, movieID int64) ([]*domain.VideoQuality, error)
	DeleteByMovieID(ctx context.Context, movieID int64) error
}

// HealthChecker reports metadata store connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler holds API dependencies
type Handler struct {
	store        *jobs.Store
	orchestrator *pipeline.Orchestrator
	qualities    QualityCatalog
	health       HealthChecker
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewHandler creates a new handler
func NewHandler(
	store *jobs.Store,
	orchestrator *pipeline.Orchestrator,
	qualities QualityCatalog,
	health HealthChecker,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		qualities:    qualities,
		health:       health,
		logger:       logger,
		metrics:      m,
	}
}

// StartConversionRequest is posted by the upload handler once the raw
// file has been saved to disk.
type StartConversionRequest struct {
	MovieID    int64  `json:"movieId"`
	SourcePath string `json:"sourcePath"`
	FileID     string `json:"fileId"`
}

// StartConversionResponse carries the id the client polls with.
type StartConversionResponse struct {
	JobID string `json:"jobId"`
}

// ConversionStatusResponse is the polling endpoint response shape.
type ConversionStatusResponse struct {
	Status    domain.JobStatus       `json:"status"`
	Progress  map[domain.Quality]int `json:"progress"`
	Completed bool                   `json:"completed"`
	Failed    bool                   `json:"failed"`
	Error     string                 `json:"error,omitempty"`
	Result    *ConversionResult      `json:"result,omitempty"`
}

// ConversionResult lists the renditions available after completion.
type ConversionResult struct {
	Qualities []RenditionInfo `json:"qualities"`
}

// RenditionInfo describes one available rendition file.
type RenditionInfo struct {
	Quality  domain.Quality `json:"quality"`
	FilePath string         `json:"filePath"`
	FileSize int64          `json:"fileSize"`
}

// StartConversion creates a conversion job
func (h *Handler) StartConversion(w http.ResponseWriter, r *http.Request) {
	var req StartConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.MovieID <= 0 {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "movieId is required")
		return
	}

	jobID, err := h.orchestrator.StartConversion(req.MovieID, req.SourcePath, req.FileID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	h.metrics.IncrementJobsTotal(string(domain.JobStatusPending))
	h.writeJSON(w, http.StatusAccepted, StartConversionResponse{JobID: jobID})
}

// GetConversion returns polling status for a job
func (h *Handler) GetConversion(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	job, ok := h.store.Get(jobID)
	if !ok {
		h.writeError(w, http.StatusNotFound, CodeJobNotFound, "job not found")
		return
	}

	response := ConversionStatusResponse{
		Status:    job.Status,
		Progress:  job.Progress,
		Completed: job.Status == domain.JobStatusCompleted,
		Failed:    job.Status == domain.JobStatusFailed,
		Error:     job.Error,
	}

	if response.Completed && h.qualities != nil {
		records, err := h.qualities.ListByMovieID(r.Context(), job.MovieID)
		if err != nil {
			h.logger.Error("failed to list renditions",
				zap.String("jobId", jobID),
				zap.Error(err),
			)
		} else {
			result := &ConversionResult{}
			for _, rec := range records {
				result.Qualities = append(result.Qualities, RenditionInfo{
					Quality:  rec.Quality,
					FilePath: rec.FilePath,
					FileSize: rec.FileSize,
				})
			}
			response.Result = result
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// CancelConversion cancels an in-flight job
func (h *Handler) CancelConversion(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	err := h.orchestrator.Cancel(jobID)
	switch {
	case errors.Is(err, pipeline.ErrJobNotFound):
		h.writeError(w, http.StatusNotFound, CodeJobNotFound, "job not found")
		return
	case errors.Is(err, pipeline.ErrJobFinished):
		h.writeError(w, http.StatusConflict, "JOB_FINISHED", "job already finished")
		return
	case err != nil:
		h.logger.Error("failed to cancel job", zap.String("jobId", jobID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel job")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// DeleteRenditions removes every persisted rendition row for a movie.
// Used by admin tooling before taking a title down or forcing a clean
// re-conversion.
func (h *Handler) DeleteRenditions(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieId"), 10, 64)
	if err != nil || movieID <= 0 {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid movie id")
		return
	}

	if h.qualities == nil {
		h.writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "metadata store not configured")
		return
	}

	if err := h.qualities.DeleteByMovieID(r.Context(), movieID); err != nil {
		h.logger.Error("failed to delete renditions",
			zap.Int64("movieId", movieID),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete renditions")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "healthy"}
	statusCode := http.StatusOK

	if h.health != nil {
		if err := h.health.Health(ctx); err != nil {
			h.logger.Error("database health check failed", zap.Error(err))
			status["database"] = "unhealthy"
			status["status"] = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		} else {
			status["database"] = "healthy"
		}
	}

	h.writeJSON(w, statusCode, status)
}

// ReadyCheck returns readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	statusCode := http.StatusOK

	if h.health != nil {
		if err := h.health.Health(ctx); err != nil {
			status["status"] = "not ready"
			status["database"] = "not connected"
			statusCode = http.StatusServiceUnavailable
		}
	}

	h.writeJSON(w, statusCode, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

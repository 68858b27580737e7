package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goob/backend/internal/export"
	"github.com/goob/backend/internal/logging"
)

// ExportHandler implements the account export endpoints.
type ExportHandler struct {
	Identity IdentityResolver
	Exports  ExportService
}

type exportJobView struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newExportJobView(job export.Job) exportJobView {
	return exportJobView{ID: job.ID, Status: job.Status, Location: job.Location, CreatedAt: job.CreatedAt}
}

// Handle dispatches POST (enqueue) and GET (status) on /api/v1/export.
func (h ExportHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.enqueue(w, r)
	case http.MethodGet:
		h.status(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ExportHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Identity == nil {
		ctx := r.Context()
		logging.FromContext(ctx).Error("identity resolver unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "export services unavailable"})
		return false
	}
	if h.Exports == nil {
		ctx := r.Context()
		respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "exports are not enabled"})
		return false
	}
	return true
}

func (h ExportHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	job, err := h.Exports.Enqueue(ctx, user)
	if err != nil {
		logger.Error("enqueue export", "userId", user.ID, "error", err)
		respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "export queue unavailable"})
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, newExportJobView(job))
}

func (h ExportHandler) status(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	jobID := strings.TrimSpace(r.URL.Query().Get("jobId"))
	if jobID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "jobId is required"})
		return
	}

	job, err := h.Exports.Status(jobID, user.ID)
	if err != nil {
		if errors.Is(err, export.ErrJobNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "export job not found"})
			return
		}
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load export job"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, newExportJobView(job))
}

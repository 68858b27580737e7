package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goob/backend/internal/commitments"
	"github.com/goob/backend/internal/logging"
)

// CommitmentHandler implements the commitment lifecycle endpoints.
type CommitmentHandler struct {
	Identity    IdentityResolver
	Commitments CommitmentService
	Limiter     RateLimiter
	NowFunc     func() time.Time
}

func (h CommitmentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type createCommitmentRequest struct {
	GoalID string      `json:"goalId"`
	Due    json.Number `json:"due"`
}

type cancelCommitmentRequest struct {
	CommitmentID string `json:"commitmentId"`
	Reason       string `json:"reason"`
}

type undoCommitmentRequest struct {
	CommitmentID string `json:"commitmentId"`
}

type completeByKeyRequest struct {
	Key string `json:"key"`
}

type commentRequest struct {
	CommitmentID string `json:"commitmentId"`
	Comment      string `json:"comment"`
}

type scoldRequest struct {
	CommitmentID string `json:"commitmentId"`
}

type acknowledgeScoldRequest struct {
	ScoldID string `json:"scoldId"`
}

func (h CommitmentHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Identity != nil && h.Commitments != nil {
		return true
	}
	ctx := r.Context()
	logging.FromContext(ctx).Error("commitment dependencies unavailable", "hasIdentity", h.Identity != nil, "hasCommitments", h.Commitments != nil)
	respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "commitment services unavailable"})
	return false
}

// Create handles POST /api/v1/commitments.
func (h CommitmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
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

	var req createCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create commitment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.GoalID = strings.TrimSpace(req.GoalID)
	if req.GoalID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "goalId is required"})
		return
	}

	due, err := req.Due.Int64()
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "due date must be an integer"})
		return
	}

	commitment, err := h.Commitments.Create(ctx, user, req.GoalID, due)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newCommitmentView(commitment, h.now().UnixMilli()))
}

// Cancel handles POST /api/v1/commitments/cancel.
func (h CommitmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
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

	var req cancelCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid cancel payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Commitments.Cancel(ctx, user, strings.TrimSpace(req.CommitmentID), strings.TrimSpace(req.Reason)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Undo handles POST /api/v1/commitments/undo. Only works within the undo
// window measured from the commitment's creation.
func (h CommitmentHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
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

	var req undoCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid undo payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Commitments.Undo(ctx, user, strings.TrimSpace(req.CommitmentID)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "undone"})
}

// Complete handles POST /api/v1/commitments/complete. The caller presents a
// completion key secret; every pending commitment on the caller's goals
// bound to that key completes. The endpoint is rate limited because the
// secret is guessable in principle.
func (h CommitmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "complete") {
		logger.Warn("completion attempt rate limited", "ip", clientIP(r))
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many completion attempts"})
		return
	}

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	var req completeByKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid complete payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	completed, err := h.Commitments.CompleteByKey(ctx, user, strings.TrimSpace(req.Key))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int{"commitmentsCompleted": completed})
}

// Comment handles POST /api/v1/commitments/comment. Comments explain what
// went wrong, so only cancelled or failed commitments accept one.
func (h CommitmentHandler) Comment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
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

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Commitments.Comment(ctx, user, strings.TrimSpace(req.CommitmentID), req.Comment); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "commented"})
}

// Scold handles POST /api/v1/commitments/scold.
func (h CommitmentHandler) Scold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
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

	var req scoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid scold payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Commitments.Scold(ctx, user, strings.TrimSpace(req.CommitmentID)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "scolded"})
}

// Pending handles GET /api/v1/commitments/pending: the caller's open
// commitments paired with their goals.
func (h CommitmentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	pending, err := h.Commitments.PendingWithGoals(ctx, user)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	nowMillis := h.now().UnixMilli()
	type pendingView struct {
		Goal       goalView       `json:"goal"`
		Commitment commitmentView `json:"commitment"`
	}
	views := make([]pendingView, 0, len(pending))
	for _, entry := range pending {
		views = append(views, pendingView{
			Goal:       newGoalView(entry.Goal),
			Commitment: newCommitmentView(entry.Commitment, nowMillis),
		})
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"pending": views})
}

// Recent handles GET /api/v1/commitments/recent: commitments that just
// resolved or are about to resolve, for the home screen ticker.
func (h CommitmentHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	recent, err := h.Commitments.Recent(ctx, user)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"commitments": newCommitmentViews(recent, h.now().UnixMilli())})
}

// UndoPeriod handles GET /api/v1/commitments/undo-period so clients can
// size their undo countdowns without hardcoding the window.
func (h CommitmentHandler) UndoPeriod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]int64{"durationMs": commitments.UndoPeriod.Milliseconds()})
}

// Scolds handles GET /api/v1/scolds: the caller's unacknowledged scolds,
// i.e. their notification feed.
func (h CommitmentHandler) Scolds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	scolds, err := h.Commitments.UnacknowledgedScolds(ctx, user)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"scolds": newScoldViews(scolds)})
}

// AcknowledgeScold handles POST /api/v1/scolds/acknowledge.
func (h CommitmentHandler) AcknowledgeScold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
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

	var req acknowledgeScoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid acknowledge payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Commitments.AcknowledgeScold(ctx, user, strings.TrimSpace(req.ScoldID)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

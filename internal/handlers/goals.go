package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goob/backend/internal/goals"
	"github.com/goob/backend/internal/logging"
)

// GoalHandler implements goal CRUD and visibility endpoints.
type GoalHandler struct {
	Identity IdentityResolver
	Goals    GoalService
	NowFunc  func() time.Time
}

func (h GoalHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type createGoalRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	CompletionKeyID string `json:"completionKeyId"`
}

type updateGoalRequest struct {
	GoalID      string  `json:"goalId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Hide        *bool   `json:"hide"`
	Archived    *bool   `json:"archived"`
}

func (h GoalHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Identity != nil && h.Goals != nil {
		return true
	}
	ctx := r.Context()
	logging.FromContext(ctx).Error("goal dependencies unavailable", "hasIdentity", h.Identity != nil, "hasGoals", h.Goals != nil)
	respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "goal services unavailable"})
	return false
}

// Handle dispatches POST (create) and GET (list own) on /api/v1/goals.
func (h GoalHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h GoalHandler) create(w http.ResponseWriter, r *http.Request) {
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

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create goal payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	goal, err := h.Goals.Create(ctx, user, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), strings.TrimSpace(req.CompletionKeyID))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newGoalView(goal))
}

func (h GoalHandler) list(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	owned, err := h.Goals.Owned(ctx, user)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"goals": newGoalViews(owned)})
}

// Update handles POST /api/v1/goals/update. Absent fields are left
// untouched; archive and unarchive both travel through here.
func (h GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update goal payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.GoalID = strings.TrimSpace(req.GoalID)
	if req.GoalID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "goalId is required"})
		return
	}

	goal, err := h.Goals.Update(ctx, user, req.GoalID, goals.Patch{
		Title:       req.Title,
		Description: req.Description,
		Hide:        req.Hide,
		Archived:    req.Archived,
	})
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newGoalView(goal))
}

// View handles GET /api/v1/goals/view?goalId=<id>: the detailed goal page
// with commitments, visible to the owner and to permitted friends.
func (h GoalHandler) View(w http.ResponseWriter, r *http.Request) {
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

	goalID := strings.TrimSpace(r.URL.Query().Get("goalId"))
	if goalID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "goalId is required"})
		return
	}

	public, err := h.Goals.Public(ctx, user, goalID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	nowMillis := h.now().UnixMilli()
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"goal":        newGoalView(public.Goal),
		"ownerName":   public.OwnerName,
		"isOwn":       public.IsOwn,
		"commitments": newCommitmentViews(public.Commitments, nowMillis),
	})
}

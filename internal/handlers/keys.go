package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goob/backend/internal/logging"
)

// KeyHandler implements completion key management endpoints.
type KeyHandler struct {
	Identity IdentityResolver
	Keys     KeyService
}

type rotateKeyRequest struct {
	GoalID          string `json:"goalId"`
	CompletionKeyID string `json:"completionKeyId"`
}

type renameKeyRequest struct {
	CompletionKeyID string `json:"completionKeyId"`
	Name            string `json:"name"`
}

func (h KeyHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Identity != nil && h.Keys != nil {
		return true
	}
	ctx := r.Context()
	logging.FromContext(ctx).Error("key dependencies unavailable", "hasIdentity", h.Identity != nil, "hasKeys", h.Keys != nil)
	respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "key services unavailable"})
	return false
}

// Rotate handles POST /api/v1/keys/rotate: points a goal at a different
// completion key, minting a fresh one when none is named. Keys no goal
// references any more are deleted in the same step.
func (h KeyHandler) Rotate(w http.ResponseWriter, r *http.Request) {
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

	var req rotateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid rotate key payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.GoalID = strings.TrimSpace(req.GoalID)
	if req.GoalID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "goalId is required"})
		return
	}

	keyID, err := h.Keys.Rotate(ctx, user, req.GoalID, strings.TrimSpace(req.CompletionKeyID))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"completionKeyId": keyID})
}

// Rename handles POST /api/v1/keys/rename.
func (h KeyHandler) Rename(w http.ResponseWriter, r *http.Request) {
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

	var req renameKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid rename key payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Keys.Rename(ctx, user, strings.TrimSpace(req.CompletionKeyID), strings.TrimSpace(req.Name)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "renamed"})
}

// Get handles GET /api/v1/keys?completionKeyId=<id>. Any authenticated user
// may fetch a key by id; possession of the id is the capability.
func (h KeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	if _, err := currentUser(ctx, h.Identity); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	keyID := strings.TrimSpace(r.URL.Query().Get("completionKeyId"))
	if keyID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "completionKeyId is required"})
		return
	}

	key, err := h.Keys.Get(ctx, keyID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newKeyView(key))
}

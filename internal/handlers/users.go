package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goob/backend/internal/identity"
	"github.com/goob/backend/internal/logging"
)

// UserHandler implements account endpoints.
type UserHandler struct {
	Identity IdentityResolver
	Users    UserStore
}

type registerRequest struct {
	Name string `json:"name"`
}

type changeNameRequest struct {
	Name string `json:"name"`
}

// Register handles POST /api/v1/users. Resolving an unknown token creates
// the account, so registration and login are the same operation.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Identity == nil {
		logger.Error("identity resolver unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "identity service unavailable"})
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.Identity.ResolveOrCreate(ctx, identity.TokenFromContext(ctx), strings.TrimSpace(req.Name))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if h.Identity == nil {
		logging.FromContext(ctx).Error("identity resolver unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "identity service unavailable"})
		return
	}

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// ChangeName handles POST /api/v1/users/name.
func (h UserHandler) ChangeName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Identity == nil || h.Users == nil {
		logger.Error("user dependencies unavailable", "hasIdentity", h.Identity != nil, "hasUsers", h.Users != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "user services unavailable"})
		return
	}

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	var req changeNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change name payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if err := h.Users.Rename(ctx, user.ID, req.Name); err != nil {
		logger.Error("rename user", "userId", user.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update name"})
		return
	}

	user.Name = req.Name
	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

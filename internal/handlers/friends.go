package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goob/backend/internal/logging"
)

// FriendHandler implements friend graph endpoints.
type FriendHandler struct {
	Identity IdentityResolver
	Social   SocialGraph
}

type addFriendRequest struct {
	FriendCode string `json:"friendCode"`
}

type removeFriendRequest struct {
	FriendID string `json:"friendId"`
}

func (h FriendHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Identity != nil && h.Social != nil {
		return true
	}
	ctx := r.Context()
	logging.FromContext(ctx).Error("friend dependencies unavailable", "hasIdentity", h.Identity != nil, "hasSocial", h.Social != nil)
	respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "friend services unavailable"})
	return false
}

// List handles GET /api/v1/friends and Add handles POST on the same path;
// dispatch happens in Handle.
func (h FriendHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h FriendHandler) list(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	ctx := r.Context()

	user, err := currentUser(ctx, h.Identity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	friends, err := h.Social.Friends(ctx, user)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	views := make([]friendView, 0, len(friends))
	for _, friend := range friends {
		views = append(views, friendView{ID: friend.ID, Name: friend.Name, IsMutualFriend: friend.IsMutualFriend})
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"friends": views})
}

func (h FriendHandler) add(w http.ResponseWriter, r *http.Request) {
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

	var req addFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid add friend payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Social.AddFriend(ctx, user, strings.TrimSpace(req.FriendCode)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "added"})
}

// Remove handles POST /api/v1/friends/remove.
func (h FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
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

	var req removeFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid remove friend payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.Social.RemoveFriend(ctx, user, strings.TrimSpace(req.FriendID)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

// Goals handles GET /api/v1/friends/goals?friendId=<id>, the friend profile
// view: the friend's name plus their visible goals.
func (h FriendHandler) Goals(w http.ResponseWriter, r *http.Request) {
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

	friendID := strings.TrimSpace(r.URL.Query().Get("friendId"))
	if friendID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "friendId is required"})
		return
	}

	overview, err := h.Social.FriendOverview(ctx, user, friendID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"id":    overview.ID,
		"name":  overview.Name,
		"goals": newGoalViews(overview.Goals),
	})
}

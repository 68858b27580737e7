package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/identity"
	"github.com/goob/backend/internal/logging"
	"github.com/goob/backend/internal/models"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondDomainError maps the error taxonomy onto HTTP statuses. The
// sentinel's message is surfaced verbatim: every precondition violation is
// user-visible, there is no silent fallback.
func respondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	respondJSON(ctx, w, statusForError(err), map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, goob.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, goob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, goob.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, goob.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, goob.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IdentityResolver resolves the caller's opaque token to a user record.
type IdentityResolver interface {
	ResolveOrCreate(ctx context.Context, token, nameHint string) (models.User, error)
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

// currentUser loads the authenticated caller from the request context.
func currentUser(ctx context.Context, resolver IdentityResolver) (models.User, error) {
	return resolver.CurrentUser(ctx, identity.TokenFromContext(ctx))
}

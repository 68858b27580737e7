package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/identity"
	"github.com/goob/backend/internal/models"
)

// stubResolver resolves any non-empty token to a fixed user.
type stubResolver struct {
	user models.User
	err  error
}

func (s stubResolver) ResolveOrCreate(_ context.Context, token, _ string) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	if strings.TrimSpace(token) == "" {
		return models.User{}, goob.ErrUnauthenticated
	}
	return s.user, nil
}

func (s stubResolver) CurrentUser(_ context.Context, token string) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	if strings.TrimSpace(token) == "" {
		return models.User{}, goob.ErrUnauthenticated
	}
	return s.user, nil
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(identity.WithToken(req.Context(), "test-token"))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

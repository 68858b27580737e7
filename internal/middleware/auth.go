package middleware

import (
	"net/http"
	"strings"

	"github.com/goob/backend/internal/identity"
)

// BearerToken extracts the caller's opaque identity token from the
// Authorization header and stores it on the request context. Handlers
// decide whether an absent token is fatal; this middleware only carries it.
func BearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			ctx := identity.WithToken(r.Context(), strings.TrimSpace(token))
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

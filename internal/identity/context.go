package identity

import "context"

type ctxKey string

const tokenKey ctxKey = "identityToken"

// WithToken stores the caller's raw identity token on the context.
func WithToken(ctx context.Context, token string) context.Context {
	if ctx == nil || token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext retrieves the identity token, or "" when absent.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

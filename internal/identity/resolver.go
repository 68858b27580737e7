// Package identity maps the opaque token supplied by the authentication
// provider to a stable internal user record.
package identity

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

// DefaultName is assigned when the caller supplies no display name hint.
const DefaultName = "Anonymous"

// Resolver looks up users by identity token, creating a record on first
// sight. The raw token is never persisted; only its fingerprint is.
type Resolver struct {
	users   repositories.UserRepository
	nowFunc func() time.Time
}

// NewResolver constructs a Resolver over the provided user repository.
func NewResolver(users repositories.UserRepository) *Resolver {
	if users == nil {
		panic("identity: user repository must not be nil")
	}
	return &Resolver{users: users, nowFunc: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc overrides the clock. Used by tests.
func (r *Resolver) WithNowFunc(now func() time.Time) *Resolver {
	r.nowFunc = now
	return r
}

// Fingerprint returns the hex digest stored and indexed in place of the raw
// identity token. blake2b is deterministic, so the digest doubles as the
// lookup key.
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResolveOrCreate returns the user for the given token, inserting a fresh
// record with an empty friend list on first sight. Repeated calls with the
// same token return the same user and never duplicate rows.
func (r *Resolver) ResolveOrCreate(ctx context.Context, token, nameHint string) (models.User, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, goob.ErrUnauthenticated
	}

	digest := Fingerprint(token)

	user, err := r.users.FindByTokenDigest(ctx, digest)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("look up user by token: %w", err)
	}

	name := strings.TrimSpace(nameHint)
	if name == "" {
		name = DefaultName
	}

	user = models.User{
		ID:          uuid.NewString(),
		Name:        name,
		TokenDigest: digest,
		CreatedAt:   r.nowFunc(),
	}

	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Lost a race with a concurrent first-sight insert for the
			// same token; the winner's row is the canonical one.
			return r.users.FindByTokenDigest(ctx, digest)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// CurrentUser returns the user already resolved for the token. It fails
// ErrUnauthenticated when no token is presented and ErrNotFound when the
// token has not been through ResolveOrCreate yet.
func (r *Resolver) CurrentUser(ctx context.Context, token string) (models.User, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, goob.ErrUnauthenticated
	}

	user, err := r.users.FindByTokenDigest(ctx, Fingerprint(token))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, goob.ErrNotFound
		}
		return models.User{}, fmt.Errorf("look up user by token: %w", err)
	}

	return user, nil
}

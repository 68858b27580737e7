package repositories

import (
	"context"

	"github.com/goob/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByTokenDigest(ctx context.Context, digest string) (models.User, error)
	Rename(ctx context.Context, id, name string) error
}

package repositories

import (
	"context"

	"github.com/goob/backend/internal/models"
)

// GoalRepository defines data access for goals. A goal's commitments are
// never stored on the goal itself; they are derived through the commitment
// repository's goal index.
type GoalRepository interface {
	Create(ctx context.Context, goal models.Goal) error
	FindByID(ctx context.Context, id string) (models.Goal, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Goal, error)
	Update(ctx context.Context, goal models.Goal) error
}

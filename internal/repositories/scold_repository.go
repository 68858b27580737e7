package repositories

import (
	"context"

	"github.com/goob/backend/internal/models"
)

// ScoldRepository defines data access for scolds. A (commitment, scolder)
// pair is unique; a second scold from the same user yields ErrConflict.
type ScoldRepository interface {
	Create(ctx context.Context, scold models.Scold) error
	Exists(ctx context.Context, commitmentID, scolderID string) (bool, error)
	ListUnacknowledged(ctx context.Context, ownerID string) ([]models.Scold, error)

	// Acknowledge marks the scold read. ErrNotFound unless a scold with the
	// given id exists and belongs to ownerID.
	Acknowledge(ctx context.Context, id, ownerID string) error
}

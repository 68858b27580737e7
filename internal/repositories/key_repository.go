package repositories

import (
	"context"

	"github.com/goob/backend/internal/models"
)

// KeyRepository defines data access for completion keys.
type KeyRepository interface {
	Create(ctx context.Context, key models.CompletionKey) error
	FindByID(ctx context.Context, id string) (models.CompletionKey, error)
	Rename(ctx context.Context, id, name string) error

	// AttachAndSweep points the goal at the key and then deletes every key
	// no longer referenced by any goal. The attach is ordered strictly
	// before the sweep (one transaction on Postgres) so a key being rotated
	// in always has a referencing goal by the time the sweep runs.
	AttachAndSweep(ctx context.Context, goalID, keyID string) error
}

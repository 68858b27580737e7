package repositories

import (
	"context"

	"github.com/goob/backend/internal/models"
)

// CommitmentRepository defines data access for commitments. The terminal
// transition methods re-check the pending precondition inside the same
// statement that applies the mutation, so two racing writers can never both
// succeed: the loser observes ErrConflict.
type CommitmentRepository interface {
	Create(ctx context.Context, commitment models.Commitment) error
	FindByID(ctx context.Context, id string) (models.Commitment, error)
	ListByGoal(ctx context.Context, goalID string) ([]models.Commitment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Commitment, error)

	// Complete marks the commitment completed at nowMillis if and only if it
	// is still pending at that instant. ErrNotFound if the row is absent,
	// ErrConflict if it exists but is no longer pending.
	Complete(ctx context.Context, id string, nowMillis int64) error

	// CompleteAllPending completes every pending commitment under the goal
	// and returns how many rows transitioned.
	CompleteAllPending(ctx context.Context, goalID string, nowMillis int64) (int, error)

	// Cancel records {reason, at: nowMillis} under the same pending
	// precondition as Complete.
	Cancel(ctx context.Context, id, reason string, nowMillis int64) error

	// SetComment replaces the commitment's comment.
	SetComment(ctx context.Context, id, text string) error

	// Delete hard-removes the commitment (the undo path).
	Delete(ctx context.Context, id string) error
}

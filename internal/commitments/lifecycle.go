package commitments

import (
	"time"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/models"
)

// UndoPeriod is the grace window after creation during which a commitment
// can be retracted without leaving a cancellation record.
const UndoPeriod = 10 * time.Second

// AssertPending is the shared precondition for every action that needs a
// still-actionable commitment. It is a pure function of the instant and the
// row, and the store re-runs the same checks inside the mutating statement,
// so a stale read can never let two racing transitions both win.
func AssertPending(nowMillis int64, c models.Commitment) error {
	if c.CompletedAt != nil {
		return goob.ErrAlreadyCompleted
	}
	if c.CancelledAt != nil {
		return goob.ErrAlreadyCancelled
	}
	if nowMillis > c.Due {
		return goob.ErrOverdue
	}
	return nil
}

// withinUndoWindow reports whether the undo grace period is still open.
func withinUndoWindow(nowMillis int64, c models.Commitment) bool {
	return nowMillis <= c.CreatedAt+UndoPeriod.Milliseconds()
}

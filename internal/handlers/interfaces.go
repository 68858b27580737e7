package handlers

import (
	"context"

	"github.com/goob/backend/internal/commitments"
	"github.com/goob/backend/internal/export"
	"github.com/goob/backend/internal/goals"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/social"
)

// UserStore captures the persistence operations the user handlers need
// beyond identity resolution.
type UserStore interface {
	Rename(ctx context.Context, id, name string) error
}

// SocialGraph captures the friend-list operations required by the friend
// handlers.
type SocialGraph interface {
	AddFriend(ctx context.Context, user models.User, friendCode string) error
	RemoveFriend(ctx context.Context, user models.User, friendID string) error
	Friends(ctx context.Context, user models.User) ([]social.Friend, error)
	FriendOverview(ctx context.Context, viewer models.User, friendID string) (social.FriendOverview, error)
}

// GoalService captures goal CRUD and the visibility-checked public view.
type GoalService interface {
	Create(ctx context.Context, owner models.User, title, description, explicitKeyID string) (models.Goal, error)
	Update(ctx context.Context, owner models.User, goalID string, patch goals.Patch) (models.Goal, error)
	Owned(ctx context.Context, owner models.User) ([]models.Goal, error)
	Public(ctx context.Context, viewer models.User, goalID string) (goals.PublicGoal, error)
}

// CommitmentService captures the lifecycle engine operations.
type CommitmentService interface {
	Create(ctx context.Context, user models.User, goalID string, due int64) (models.Commitment, error)
	Cancel(ctx context.Context, user models.User, commitmentID, reason string) error
	Undo(ctx context.Context, user models.User, commitmentID string) error
	CompleteByKey(ctx context.Context, user models.User, secret string) (int, error)
	Comment(ctx context.Context, user models.User, commitmentID, text string) error
	Scold(ctx context.Context, user models.User, commitmentID string) error
	UnacknowledgedScolds(ctx context.Context, user models.User) ([]models.Scold, error)
	AcknowledgeScold(ctx context.Context, user models.User, scoldID string) error
	PendingWithGoals(ctx context.Context, user models.User) ([]commitments.PendingCommitment, error)
	Recent(ctx context.Context, user models.User) ([]models.Commitment, error)
}

// KeyService captures completion key management.
type KeyService interface {
	Rotate(ctx context.Context, user models.User, goalID, explicitKeyID string) (string, error)
	Rename(ctx context.Context, user models.User, keyID, name string) error
	Get(ctx context.Context, keyID string) (models.CompletionKey, error)
}

// ExportService captures the account-export workflow.
type ExportService interface {
	Enqueue(ctx context.Context, user models.User) (export.Job, error)
	Status(jobID, userID string) (export.Job, error)
}

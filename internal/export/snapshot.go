package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

// Snapshot is the JSON document an export job uploads: everything the user
// owns, in one self-contained file.
type Snapshot struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	User        SnapshotUser       `json:"user"`
	FriendIDs   []string           `json:"friendIds"`
	Goals       []SnapshotGoal     `json:"goals"`
	Commitments []models.Commitment `json:"commitments"`
}

// SnapshotUser omits the token digest: the export is for the user, not for
// re-authentication.
type SnapshotUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotGoal embeds the goal's current completion key so a printed key
// card can be reproduced from the export.
type SnapshotGoal struct {
	models.Goal
	CompletionKeyName   string `json:"completionKeyName,omitempty"`
	CompletionKeySecret string `json:"completionKeySecret,omitempty"`
}

// SnapshotBuilder assembles a snapshot from the repositories.
type SnapshotBuilder struct {
	friends     repositories.FriendRepository
	goals       repositories.GoalRepository
	commitments repositories.CommitmentRepository
	keys        repositories.KeyRepository
	nowFunc     func() time.Time
}

// NewSnapshotBuilder constructs a snapshot builder.
func NewSnapshotBuilder(friends repositories.FriendRepository, goals repositories.GoalRepository, commitments repositories.CommitmentRepository, keys repositories.KeyRepository) *SnapshotBuilder {
	return &SnapshotBuilder{
		friends:     friends,
		goals:       goals,
		commitments: commitments,
		keys:        keys,
		nowFunc:     func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock. Used by tests.
func (b *SnapshotBuilder) WithNowFunc(now func() time.Time) *SnapshotBuilder {
	b.nowFunc = now
	return b
}

// Build assembles the user's snapshot.
func (b *SnapshotBuilder) Build(ctx context.Context, user models.User) (Snapshot, error) {
	friendIDs, err := b.friends.ListFriendIDs(ctx, user.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list friends: %w", err)
	}

	ownedGoals, err := b.goals.ListByOwner(ctx, user.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list goals: %w", err)
	}

	goalViews := make([]SnapshotGoal, 0, len(ownedGoals))
	for _, goal := range ownedGoals {
		view := SnapshotGoal{Goal: goal}
		key, err := b.keys.FindByID(ctx, goal.CompletionKeyID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return Snapshot{}, fmt.Errorf("look up goal key: %w", err)
		}
		if err == nil {
			view.CompletionKeyName = key.Name
			view.CompletionKeySecret = key.Secret
		}
		goalViews = append(goalViews, view)
	}

	commitments, err := b.commitments.ListByOwner(ctx, user.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list commitments: %w", err)
	}

	return Snapshot{
		GeneratedAt: b.nowFunc(),
		User: SnapshotUser{
			ID:        user.ID,
			Name:      user.Name,
			CreatedAt: user.CreatedAt,
		},
		FriendIDs:   friendIDs,
		Goals:       goalViews,
		Commitments: commitments,
	}, nil
}

package repositories

import (
	"context"

	"github.com/goob/backend/internal/models"
)

// FriendRepository defines data access for directional friendship edges.
type FriendRepository interface {
	Add(ctx context.Context, friendship models.Friendship) error
	Remove(ctx context.Context, userID, friendID string) error
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, friendID string) (bool, error)
}

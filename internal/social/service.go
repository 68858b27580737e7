// Package social manages the friend graph. Friendship is directional per
// record; mutuality is derived by checking for the reverse edge.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

// Friend is a row in the caller's friend list.
type Friend struct {
	ID             string
	Name           string
	IsMutualFriend bool
}

// FriendOverview is a friend's profile plus the goals they share.
type FriendOverview struct {
	ID    string
	Name  string
	Goals []models.Goal
}

// Service implements friend list mutations and visibility queries.
type Service struct {
	users   repositories.UserRepository
	friends repositories.FriendRepository
	goals   repositories.GoalRepository
	nowFunc func() time.Time
}

// NewService constructs a social graph service.
func NewService(users repositories.UserRepository, friends repositories.FriendRepository, goals repositories.GoalRepository) *Service {
	return &Service{
		users:   users,
		friends: friends,
		goals:   goals,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock. Used by tests.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// AddFriend adds the user identified by friendCode to the caller's friend
// list. A friend code is the target user's id in string form.
func (s *Service) AddFriend(ctx context.Context, user models.User, friendCode string) error {
	friendCode = strings.TrimSpace(friendCode)
	if friendCode == "" {
		return fmt.Errorf("friend code is required: %w", goob.ErrInvalidArgument)
	}
	if friendCode == user.ID {
		return fmt.Errorf("cannot add yourself as a friend: %w", goob.ErrInvalidArgument)
	}

	if _, err := s.users.FindByID(ctx, friendCode); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("friend not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("look up friend: %w", err)
	}

	err := s.friends.Add(ctx, models.Friendship{
		UserID:    user.ID,
		FriendID:  friendCode,
		CreatedAt: s.nowFunc(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return fmt.Errorf("already friends: %w", goob.ErrConflict)
		}
		return fmt.Errorf("add friend: %w", err)
	}

	return nil
}

// RemoveFriend drops friendID from the caller's friend list. The reverse
// edge, if any, is untouched.
func (s *Service) RemoveFriend(ctx context.Context, user models.User, friendID string) error {
	if err := s.friends.Remove(ctx, user.ID, friendID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("not friends: %w", goob.ErrConflict)
		}
		return fmt.Errorf("remove friend: %w", err)
	}
	return nil
}

// Friends returns the caller's friend list with derived mutuality. Friends
// whose user record has vanished are skipped.
func (s *Service) Friends(ctx context.Context, user models.User) ([]Friend, error) {
	ids, err := s.friends.ListFriendIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	friends := make([]Friend, 0, len(ids))
	for _, id := range ids {
		record, err := s.users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load friend %s: %w", id, err)
		}

		mutual, err := s.friends.Exists(ctx, id, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check mutuality: %w", err)
		}

		friends = append(friends, Friend{ID: record.ID, Name: record.Name, IsMutualFriend: mutual})
	}

	return friends, nil
}

// FriendOverview returns the friend's profile and their visible goals. The
// check is one-directional against the viewed user: the viewer may see a
// friend's shared goals once that friend has added the viewer, regardless
// of whether the viewer has added them back.
func (s *Service) FriendOverview(ctx context.Context, viewer models.User, friendID string) (FriendOverview, error) {
	friend, err := s.users.FindByID(ctx, friendID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return FriendOverview{}, fmt.Errorf("friend not found: %w", goob.ErrNotFound)
		}
		return FriendOverview{}, fmt.Errorf("look up friend: %w", err)
	}

	shared, err := s.friends.Exists(ctx, friend.ID, viewer.ID)
	if err != nil {
		return FriendOverview{}, fmt.Errorf("check friendship: %w", err)
	}
	if !shared {
		return FriendOverview{}, goob.ErrGoalNotShared
	}

	goals, err := s.goals.ListByOwner(ctx, friend.ID)
	if err != nil {
		return FriendOverview{}, fmt.Errorf("list friend goals: %w", err)
	}

	visible := make([]models.Goal, 0, len(goals))
	for _, goal := range goals {
		if goal.Hide || goal.Archived {
			continue
		}
		visible = append(visible, goal)
	}

	return FriendOverview{ID: friend.ID, Name: friend.Name, Goals: visible}, nil
}

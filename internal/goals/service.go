// Package goals implements goal CRUD and the ownership and visibility
// guard used by every read and mutation path.
package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/keys"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

// Patch carries optional goal field updates; nil fields keep their value.
type Patch struct {
	Title       *string
	Description *string
	Hide        *bool
	Archived    *bool
}

// PublicGoal is the visibility-checked view of a goal with its commitments.
type PublicGoal struct {
	OwnerName   string
	IsOwn       bool
	Goal        models.Goal
	Commitments []models.Commitment
}

// Service implements goal operations.
type Service struct {
	goals       repositories.GoalRepository
	users       repositories.UserRepository
	friends     repositories.FriendRepository
	commitments repositories.CommitmentRepository
	keys        *keys.Manager
	nowFunc     func() time.Time
}

// NewService constructs a goal service.
func NewService(goals repositories.GoalRepository, users repositories.UserRepository, friends repositories.FriendRepository, commitments repositories.CommitmentRepository, keyManager *keys.Manager) *Service {
	return &Service{
		goals:       goals,
		users:       users,
		friends:     friends,
		commitments: commitments,
		keys:        keyManager,
		nowFunc:     func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock. Used by tests.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

// Create inserts a new goal for the owner. When no explicit completion key
// is supplied a fresh one is minted; an explicit key id is adopted as-is,
// which is how a key is shared across goals.
func (s *Service) Create(ctx context.Context, owner models.User, title, description, explicitKeyID string) (models.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Goal{}, fmt.Errorf("goal title is required: %w", goob.ErrInvalidArgument)
	}

	keyID, err := s.keys.Ensure(ctx, owner, explicitKeyID)
	if err != nil {
		return models.Goal{}, err
	}

	goal := models.Goal{
		ID:              uuid.NewString(),
		OwnerID:         owner.ID,
		Title:           title,
		Description:     description,
		CompletionKeyID: keyID,
		Hide:            false,
		Archived:        false,
		CreatedAt:       s.nowFunc(),
	}

	if err := s.goals.Create(ctx, goal); err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	return goal, nil
}

// Update applies the patch to a goal the caller owns. Archived goals may
// still be updated; that is the un-archive path.
func (s *Service) Update(ctx context.Context, owner models.User, goalID string, patch Patch) (models.Goal, error) {
	goal, err := s.RequireOwned(ctx, owner, goalID, false)
	if err != nil {
		return models.Goal{}, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Goal{}, fmt.Errorf("goal title is required: %w", goob.ErrInvalidArgument)
		}
		goal.Title = title
	}
	if patch.Description != nil {
		goal.Description = *patch.Description
	}
	if patch.Hide != nil {
		goal.Hide = *patch.Hide
	}
	if patch.Archived != nil {
		goal.Archived = *patch.Archived
	}

	if err := s.goals.Update(ctx, goal); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Goal{}, fmt.Errorf("goal not found: %w", goob.ErrNotFound)
		}
		return models.Goal{}, fmt.Errorf("update goal: %w", err)
	}

	return goal, nil
}

// Owned returns all of the caller's goals, archived included.
func (s *Service) Owned(ctx context.Context, owner models.User) ([]models.Goal, error) {
	goals, err := s.goals.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// RequireOwned loads the goal and asserts the caller owns it. With
// requireUnarchived set, an archived goal fails ErrGoalArchived.
func (s *Service) RequireOwned(ctx context.Context, user models.User, goalID string, requireUnarchived bool) (models.Goal, error) {
	goal, err := s.goals.FindByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Goal{}, fmt.Errorf("goal not found: %w", goob.ErrNotFound)
		}
		return models.Goal{}, fmt.Errorf("look up goal: %w", err)
	}
	if goal.OwnerID != user.ID {
		return models.Goal{}, goob.ErrNotYourGoal
	}
	if requireUnarchived && goal.Archived {
		return models.Goal{}, goob.ErrGoalArchived
	}
	return goal, nil
}

// Public returns the goal as seen by the viewer. The owner always sees
// their own goal; anyone else needs the goal to be unhidden, unarchived,
// and shared with them by the owner. Each failing condition yields its own
// denial reason.
func (s *Service) Public(ctx context.Context, viewer models.User, goalID string) (PublicGoal, error) {
	goal, err := s.goals.FindByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return PublicGoal{}, fmt.Errorf("goal not found: %w", goob.ErrNotFound)
		}
		return PublicGoal{}, fmt.Errorf("look up goal: %w", err)
	}

	owner, err := s.users.FindByID(ctx, goal.OwnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return PublicGoal{}, fmt.Errorf("goal owner not found: %w", goob.ErrNotFound)
		}
		return PublicGoal{}, fmt.Errorf("look up goal owner: %w", err)
	}

	isOwn := goal.OwnerID == viewer.ID
	if !isOwn {
		if goal.Hide {
			return PublicGoal{}, goob.ErrGoalHidden
		}
		if goal.Archived {
			return PublicGoal{}, goob.ErrGoalArchived
		}
		shared, err := s.friends.Exists(ctx, owner.ID, viewer.ID)
		if err != nil {
			return PublicGoal{}, fmt.Errorf("check friendship: %w", err)
		}
		if !shared {
			return PublicGoal{}, goob.ErrGoalNotShared
		}
	}

	commitments, err := s.commitments.ListByGoal(ctx, goal.ID)
	if err != nil {
		return PublicGoal{}, fmt.Errorf("list goal commitments: %w", err)
	}

	return PublicGoal{
		OwnerName:   owner.Name,
		IsOwn:       isOwn,
		Goal:        goal,
		Commitments: commitments,
	}, nil
}

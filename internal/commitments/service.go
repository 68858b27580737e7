// Package commitments implements the commitment lifecycle engine: creation,
// cancellation, the undo grace window, capability-based completion, and the
// social actions against terminal commitments.
package commitments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/goals"
	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

// RecentWindow bounds the getRecent projection around the current time.
const RecentWindow = 5 * time.Minute

// PendingCommitment pairs a pending commitment with its goal.
type PendingCommitment struct {
	Goal       models.Goal
	Commitment models.Commitment
}

// Service implements the lifecycle engine.
type Service struct {
	commitments repositories.CommitmentRepository
	goalRepo    repositories.GoalRepository
	keys        repositories.KeyRepository
	scolds      repositories.ScoldRepository
	friends     repositories.FriendRepository
	guard       *goals.Service
	nowFunc     func() time.Time
}

// NewService constructs a lifecycle engine. The goal service acts as the
// ownership guard; ownership of a commitment is transitive through its goal.
func NewService(
	commitments repositories.CommitmentRepository,
	goalRepo repositories.GoalRepository,
	keys repositories.KeyRepository,
	scolds repositories.ScoldRepository,
	friends repositories.FriendRepository,
	guard *goals.Service,
) *Service {
	return &Service{
		commitments: commitments,
		goalRepo:    goalRepo,
		keys:        keys,
		scolds:      scolds,
		friends:     friends,
		guard:       guard,
		nowFunc:     func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock. Used by tests.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.nowFunc = now
	return s
}

func (s *Service) nowMillis() int64 {
	return s.nowFunc().UnixMilli()
}

// Create inserts a pending commitment under a goal the caller owns. The due
// date must be strictly in the future.
func (s *Service) Create(ctx context.Context, user models.User, goalID string, due int64) (models.Commitment, error) {
	goal, err := s.guard.RequireOwned(ctx, user, goalID, true)
	if err != nil {
		return models.Commitment{}, err
	}

	now := s.nowMillis()
	if due <= now {
		return models.Commitment{}, fmt.Errorf("due date must be in the future: %w", goob.ErrInvalidArgument)
	}

	commitment := models.Commitment{
		ID:        uuid.NewString(),
		GoalID:    goal.ID,
		Due:       due,
		CreatedAt: now,
	}

	if err := s.commitments.Create(ctx, commitment); err != nil {
		return models.Commitment{}, fmt.Errorf("create commitment: %w", err)
	}

	return commitment, nil
}

// Cancel records a cancellation with the given reason. The commitment must
// still be pending at the moment of the write.
func (s *Service) Cancel(ctx context.Context, user models.User, commitmentID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("cancellation reason is required: %w", goob.ErrInvalidArgument)
	}

	commitment, err := s.ownedCommitment(ctx, user, commitmentID)
	if err != nil {
		return err
	}

	now := s.nowMillis()
	if err := AssertPending(now, commitment); err != nil {
		return err
	}

	if err := s.commitments.Cancel(ctx, commitmentID, reason, now); err != nil {
		return s.mapTransitionErr(ctx, commitmentID, now, err)
	}

	return nil
}

// Undo hard-deletes the commitment, leaving no cancellation artifact. It is
// allowed only within the grace window after creation, regardless of the
// commitment's state otherwise.
func (s *Service) Undo(ctx context.Context, user models.User, commitmentID string) error {
	commitment, err := s.ownedCommitment(ctx, user, commitmentID)
	if err != nil {
		return err
	}

	if !withinUndoWindow(s.nowMillis(), commitment) {
		return goob.ErrUndoExpired
	}

	if err := s.commitments.Delete(ctx, commitmentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("commitment not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("delete commitment: %w", err)
	}

	return nil
}

// CompleteByKey completes every pending commitment under every one of the
// caller's goals whose current key secret matches. The scan is deliberately
// scoped to the caller's own goals: knowing a secret is never enough to
// complete a stranger's commitments. An unmatched secret completes nothing
// and is not an error.
func (s *Service) CompleteByKey(ctx context.Context, user models.User, secret string) (int, error) {
	ownedGoals, err := s.goalRepo.ListByOwner(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("list goals: %w", err)
	}

	now := s.nowMillis()
	completed := 0
	for _, goal := range ownedGoals {
		key, err := s.keys.FindByID(ctx, goal.CompletionKeyID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return completed, fmt.Errorf("look up goal key: %w", err)
		}
		if key.Secret != secret {
			continue
		}

		n, err := s.commitments.CompleteAllPending(ctx, goal.ID, now)
		if err != nil {
			return completed, fmt.Errorf("complete pending commitments: %w", err)
		}
		completed += n
	}

	return completed, nil
}

// Comment sets the owner's explanation on a failed or cancelled commitment.
// It is re-settable while the commitment stays terminal; commenting on a
// pending or completed commitment is a conflict.
func (s *Service) Comment(ctx context.Context, user models.User, commitmentID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("comment text is required: %w", goob.ErrInvalidArgument)
	}

	commitment, err := s.ownedCommitmentAnyState(ctx, user, commitmentID)
	if err != nil {
		return err
	}

	switch commitment.Status(s.nowMillis()) {
	case models.StatusCancelled, models.StatusFailed:
	default:
		return goob.ErrNotTerminal
	}

	if err := s.commitments.SetComment(ctx, commitmentID, text); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("commitment not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("set commitment comment: %w", err)
	}

	return nil
}

// Scold records the caller's reproach against another user's failed or
// cancelled commitment. Each user may scold a commitment at most once; the
// scold row doubles as the owner's notification.
func (s *Service) Scold(ctx context.Context, user models.User, commitmentID string) error {
	commitment, err := s.commitments.FindByID(ctx, commitmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("commitment not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("look up commitment: %w", err)
	}

	goal, err := s.goalRepo.FindByID(ctx, commitment.GoalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("goal not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("look up goal: %w", err)
	}

	if goal.OwnerID == user.ID {
		return fmt.Errorf("cannot scold your own commitment: %w", goob.ErrForbidden)
	}

	// Same visibility rules as viewing the goal.
	if goal.Hide {
		return goob.ErrGoalHidden
	}
	if goal.Archived {
		return goob.ErrGoalArchived
	}
	shared, err := s.friends.Exists(ctx, goal.OwnerID, user.ID)
	if err != nil {
		return fmt.Errorf("check friendship: %w", err)
	}
	if !shared {
		return goob.ErrGoalNotShared
	}

	switch commitment.Status(s.nowMillis()) {
	case models.StatusCancelled, models.StatusFailed:
	default:
		return goob.ErrNotTerminal
	}

	already, err := s.scolds.Exists(ctx, commitmentID, user.ID)
	if err != nil {
		return fmt.Errorf("check existing scold: %w", err)
	}
	if already {
		return goob.ErrAlreadyScolded
	}

	scold := models.Scold{
		ID:           uuid.NewString(),
		CommitmentID: commitmentID,
		ScolderID:    user.ID,
		OwnerID:      goal.OwnerID,
		CreatedAt:    s.nowMillis(),
	}

	if err := s.scolds.Create(ctx, scold); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return goob.ErrAlreadyScolded
		}
		return fmt.Errorf("record scold: %w", err)
	}

	return nil
}

// UnacknowledgedScolds returns the caller's unread scold notifications.
func (s *Service) UnacknowledgedScolds(ctx context.Context, user models.User) ([]models.Scold, error) {
	scolds, err := s.scolds.ListUnacknowledged(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list scolds: %w", err)
	}
	return scolds, nil
}

// AcknowledgeScold marks one of the caller's scold notifications as read.
func (s *Service) AcknowledgeScold(ctx context.Context, user models.User, scoldID string) error {
	if err := s.scolds.Acknowledge(ctx, scoldID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("scold not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("acknowledge scold: %w", err)
	}
	return nil
}

// PendingWithGoals returns the caller's pending commitments paired with
// their goals. Status is recomputed against the current instant, never read
// from storage.
func (s *Service) PendingWithGoals(ctx context.Context, user models.User) ([]PendingCommitment, error) {
	ownedGoals, err := s.goalRepo.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	byID := make(map[string]models.Goal, len(ownedGoals))
	for _, goal := range ownedGoals {
		byID[goal.ID] = goal
	}

	all, err := s.commitments.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}

	now := s.nowMillis()
	pending := make([]PendingCommitment, 0, len(all))
	for _, commitment := range all {
		if commitment.Status(now) != models.StatusPending {
			continue
		}
		goal, ok := byID[commitment.GoalID]
		if !ok {
			continue
		}
		pending = append(pending, PendingCommitment{Goal: goal, Commitment: commitment})
	}

	return pending, nil
}

// Recent returns the caller's commitments that were completed or cancelled
// within the last five minutes, or whose due time falls within five minutes
// either side of now.
func (s *Service) Recent(ctx context.Context, user models.User) ([]models.Commitment, error) {
	all, err := s.commitments.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}

	now := s.nowMillis()
	window := RecentWindow.Milliseconds()

	var recent []models.Commitment
	for _, c := range all {
		switch {
		case c.CompletedAt != nil && *c.CompletedAt >= now-window:
			recent = append(recent, c)
		case c.CancelledAt != nil && *c.CancelledAt >= now-window:
			recent = append(recent, c)
		case c.Due >= now-window && c.Due <= now+window:
			recent = append(recent, c)
		}
	}

	return recent, nil
}

// ownedCommitment loads the commitment and asserts transitive ownership
// through an unarchived goal.
func (s *Service) ownedCommitment(ctx context.Context, user models.User, commitmentID string) (models.Commitment, error) {
	return s.loadOwned(ctx, user, commitmentID, true)
}

// ownedCommitmentAnyState skips the archived-goal check: retrospective
// actions such as commenting stay possible after the goal is archived.
func (s *Service) ownedCommitmentAnyState(ctx context.Context, user models.User, commitmentID string) (models.Commitment, error) {
	return s.loadOwned(ctx, user, commitmentID, false)
}

func (s *Service) loadOwned(ctx context.Context, user models.User, commitmentID string, requireUnarchived bool) (models.Commitment, error) {
	commitment, err := s.commitments.FindByID(ctx, commitmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Commitment{}, fmt.Errorf("commitment not found: %w", goob.ErrNotFound)
		}
		return models.Commitment{}, fmt.Errorf("look up commitment: %w", err)
	}

	if _, err := s.guard.RequireOwned(ctx, user, commitment.GoalID, requireUnarchived); err != nil {
		return models.Commitment{}, err
	}

	return commitment, nil
}

// mapTransitionErr turns a conditional-update conflict into the specific
// lifecycle error by re-reading the row the race left behind.
func (s *Service) mapTransitionErr(ctx context.Context, commitmentID string, nowMillis int64, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("commitment not found: %w", goob.ErrNotFound)
	case errors.Is(err, repositories.ErrConflict):
		commitment, readErr := s.commitments.FindByID(ctx, commitmentID)
		if readErr == nil {
			if assertErr := AssertPending(nowMillis, commitment); assertErr != nil {
				return assertErr
			}
		}
		return goob.ErrConflict
	default:
		return fmt.Errorf("transition commitment: %w", err)
	}
}

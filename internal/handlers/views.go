package handlers

import (
	"time"

	"github.com/goob/backend/internal/models"
)

// JSON projections of the domain entities. Commitment status is always
// recomputed against the rendering instant.

type userView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FriendCode string `json:"friendCode"`
}

func newUserView(user models.User) userView {
	return userView{ID: user.ID, Name: user.Name, FriendCode: user.FriendCode()}
}

type friendView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsMutualFriend bool   `json:"isMutualFriend"`
}

type goalView struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CompletionKeyID string    `json:"completionKeyId"`
	Hide            bool      `json:"hide"`
	Archived        bool      `json:"archived"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newGoalView(goal models.Goal) goalView {
	return goalView{
		ID:              goal.ID,
		OwnerID:         goal.OwnerID,
		Title:           goal.Title,
		Description:     goal.Description,
		CompletionKeyID: goal.CompletionKeyID,
		Hide:            goal.Hide,
		Archived:        goal.Archived,
		CreatedAt:       goal.CreatedAt,
	}
}

func newGoalViews(goals []models.Goal) []goalView {
	views := make([]goalView, 0, len(goals))
	for _, goal := range goals {
		views = append(views, newGoalView(goal))
	}
	return views
}

type cancellationView struct {
	Reason string `json:"reason"`
	At     int64  `json:"at"`
}

type commitmentView struct {
	ID          string                  `json:"id"`
	GoalID      string                  `json:"goalId"`
	Due         int64                   `json:"due"`
	CreatedAt   int64                   `json:"createdAt"`
	CompletedAt *int64                  `json:"completedAt"`
	Cancelled   *cancellationView       `json:"cancelled"`
	Comment     *string                 `json:"comment"`
	Status      models.CommitmentStatus `json:"status"`
}

func newCommitmentView(c models.Commitment, nowMillis int64) commitmentView {
	view := commitmentView{
		ID:          c.ID,
		GoalID:      c.GoalID,
		Due:         c.Due,
		CreatedAt:   c.CreatedAt,
		CompletedAt: c.CompletedAt,
		Comment:     c.Comment,
		Status:      c.Status(nowMillis),
	}
	if c.CancelledAt != nil {
		reason := ""
		if c.CancelReason != nil {
			reason = *c.CancelReason
		}
		view.Cancelled = &cancellationView{Reason: reason, At: *c.CancelledAt}
	}
	return view
}

func newCommitmentViews(commitments []models.Commitment, nowMillis int64) []commitmentView {
	views := make([]commitmentView, 0, len(commitments))
	for _, c := range commitments {
		views = append(views, newCommitmentView(c, nowMillis))
	}
	return views
}

type scoldView struct {
	ID           string `json:"id"`
	CommitmentID string `json:"commitmentId"`
	ScolderID    string `json:"scolderId"`
	CreatedAt    int64  `json:"createdAt"`
}

func newScoldViews(scolds []models.Scold) []scoldView {
	views := make([]scoldView, 0, len(scolds))
	for _, scold := range scolds {
		views = append(views, scoldView{
			ID:           scold.ID,
			CommitmentID: scold.CommitmentID,
			ScolderID:    scold.ScolderID,
			CreatedAt:    scold.CreatedAt,
		})
	}
	return views
}

type keyView struct {
	ID        string `json:"id"`
	CreatorID string `json:"creatorId"`
	Name      string `json:"name"`
	Key       string `json:"key"`
}

func newKeyView(key models.CompletionKey) keyView {
	return keyView{ID: key.ID, CreatorID: key.CreatorID, Name: key.Name, Key: key.Secret}
}

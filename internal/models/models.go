package models

import "time"

// User represents an account within the GOOB platform. Identity arrives as
// an opaque token from the authentication provider; only its digest is kept.
type User struct {
	ID          string
	Name        string
	TokenDigest string
	CreatedAt   time.Time
}

// FriendCode returns the shareable code another user enters to add this
// user as a friend. It is simply the user id in string form.
func (u User) FriendCode() string {
	return u.ID
}

// Friendship is a directional edge: UserID has added FriendID. The reverse
// edge may or may not exist; mutuality is derived, never stored.
type Friendship struct {
	UserID    string
	FriendID  string
	CreatedAt time.Time
}

// Goal represents a habit or objective a user commits against.
type Goal struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	CompletionKeyID string
	Hide            bool
	Archived        bool
	CreatedAt       time.Time
}

// Commitment is a time-boxed promise under a goal. All timestamps are unix
// milliseconds so due dates survive JSON round trips without precision loss.
// At most one of CompletedAt/CancelledAt is ever set; CancelledAt and
// CancelReason are set together.
type Commitment struct {
	ID           string
	GoalID       string
	Due          int64
	CreatedAt    int64
	CompletedAt  *int64
	CancelledAt  *int64
	CancelReason *string
	Comment      *string
}

// CompletionKey is a capability: knowing its secret authorizes completing
// pending commitments of the caller's own goals that point at the key.
type CompletionKey struct {
	ID        string
	CreatorID string
	Name      string
	Secret    string
}

// Scold records a friend's reproach against a failed or cancelled
// commitment. Unacknowledged scolds double as the owner's notifications.
type Scold struct {
	ID           string
	CommitmentID string
	ScolderID    string
	OwnerID      string
	CreatedAt    int64
	Acknowledged bool
}

// CommitmentStatus is the derived lifecycle state of a commitment.
type CommitmentStatus string

const (
	StatusPending   CommitmentStatus = "pending"
	StatusCompleted CommitmentStatus = "completed"
	StatusCancelled CommitmentStatus = "cancelled"
	StatusFailed    CommitmentStatus = "failed"
)

// Status projects the commitment's lifecycle state at the given instant.
// Failure is never stored: a commitment whose due time has passed with
// neither terminal field set is failed, recomputed on every read.
func (c Commitment) Status(nowMillis int64) CommitmentStatus {
	switch {
	case c.CompletedAt != nil:
		return StatusCompleted
	case c.CancelledAt != nil:
		return StatusCancelled
	case nowMillis > c.Due:
		return StatusFailed
	default:
		return StatusPending
	}
}

// Terminal reports whether the commitment can no longer transition, i.e.
// its status at the given instant is anything but pending.
func (c Commitment) Terminal(nowMillis int64) bool {
	return c.Status(nowMillis) != StatusPending
}

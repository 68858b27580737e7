// Package goob holds the error taxonomy shared by the domain services.
// Every authorization and state check fails with one of these sentinels
// (or an error wrapping one) so HTTP handlers can map failures uniformly.
package goob

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates no identity token was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller is authenticated but not authorized.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a valid target in the wrong state.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument indicates malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Conflict variants. Each wraps ErrConflict so errors.Is(err, ErrConflict)
// holds while the specific cause stays distinguishable.
var (
	ErrAlreadyCompleted = fmt.Errorf("commitment already completed: %w", ErrConflict)
	ErrAlreadyCancelled = fmt.Errorf("commitment already cancelled: %w", ErrConflict)
	ErrOverdue          = fmt.Errorf("commitment overdue: %w", ErrConflict)
	ErrUndoExpired      = fmt.Errorf("undo period has expired: %w", ErrConflict)
	ErrAlreadyScolded   = fmt.Errorf("commitment already scolded by this user: %w", ErrConflict)
	ErrGoalArchived     = fmt.Errorf("goal is archived: %w", ErrConflict)
	ErrNotTerminal      = fmt.Errorf("commitment has not failed or been cancelled: %w", ErrConflict)
)

// Visibility denials. Each wraps ErrForbidden; the distinct reason is
// surfaced to the caller verbatim.
var (
	ErrGoalHidden    = fmt.Errorf("this goal is hidden: %w", ErrForbidden)
	ErrGoalNotShared = fmt.Errorf("this goal is not being shared with you: %w", ErrForbidden)
	ErrNotYourGoal   = fmt.Errorf("not your goal: %w", ErrForbidden)
	ErrNotYourKey    = fmt.Errorf("not your completion key: %w", ErrForbidden)
)

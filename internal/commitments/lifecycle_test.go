package commitments

import (
	"errors"
	"testing"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/models"
)

func TestAssertPending(t *testing.T) {
	completedAt := int64(500)
	cancelledAt := int64(600)
	reason := "too tired"

	cases := []struct {
		name    string
		c       models.Commitment
		now     int64
		wantErr error
	}{
		{name: "pending", c: models.Commitment{Due: 1000}, now: 500, wantErr: nil},
		{name: "pending at due instant", c: models.Commitment{Due: 1000}, now: 1000, wantErr: nil},
		{name: "overdue", c: models.Commitment{Due: 1000}, now: 1001, wantErr: goob.ErrOverdue},
		{name: "already completed", c: models.Commitment{Due: 1000, CompletedAt: &completedAt}, now: 500, wantErr: goob.ErrAlreadyCompleted},
		{name: "already cancelled", c: models.Commitment{Due: 1000, CancelledAt: &cancelledAt, CancelReason: &reason}, now: 500, wantErr: goob.ErrAlreadyCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AssertPending(tc.now, tc.c)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("AssertPending = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestWithinUndoWindow(t *testing.T) {
	c := models.Commitment{CreatedAt: 10_000}
	windowMs := UndoPeriod.Milliseconds()

	if !withinUndoWindow(10_000+windowMs, c) {
		t.Fatal("undo at the window boundary should be allowed")
	}
	if withinUndoWindow(10_000+windowMs+1, c) {
		t.Fatal("undo one millisecond past the window should be rejected")
	}
}

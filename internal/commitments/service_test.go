package commitments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/goals"
	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/keys"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

type fixture struct {
	users       *repositories.MemoryUserRepository
	friends     *repositories.MemoryFriendRepository
	goalRepo    *repositories.MemoryGoalRepository
	commitments *repositories.MemoryCommitmentRepository
	keyRepo     *repositories.MemoryKeyRepository
	scolds      *repositories.MemoryScoldRepository
	svc         *Service

	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:   repositories.NewMemoryUserRepository(),
		friends: repositories.NewMemoryFriendRepository(),
		scolds:  repositories.NewMemoryScoldRepository(),
		now:     time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC),
	}
	f.goalRepo = repositories.NewMemoryGoalRepository()
	f.commitments = repositories.NewMemoryCommitmentRepository(f.goalRepo)
	f.keyRepo = repositories.NewMemoryKeyRepository(f.goalRepo)

	clock := func() time.Time { return f.now }
	keyManager := keys.NewManager(f.keyRepo, f.goalRepo)
	guard := goals.NewService(f.goalRepo, f.users, f.friends, f.commitments, keyManager).WithNowFunc(clock)
	f.svc = NewService(f.commitments, f.goalRepo, f.keyRepo, f.scolds, f.friends, guard).WithNowFunc(clock)

	return f
}

func (f *fixture) nowMillis() int64 {
	return f.now.UnixMilli()
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) addUser(t *testing.T, name string) models.User {
	t.Helper()
	user := models.User{ID: uuid.NewString(), Name: name, TokenDigest: uuid.NewString(), CreatedAt: f.now}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *fixture) addGoal(t *testing.T, owner models.User, secret string) models.Goal {
	t.Helper()
	ctx := context.Background()

	key := models.CompletionKey{ID: uuid.NewString(), CreatorID: owner.ID, Name: "key", Secret: secret}
	if err := f.keyRepo.Create(ctx, key); err != nil {
		t.Fatalf("create key: %v", err)
	}

	goal := models.Goal{
		ID:              uuid.NewString(),
		OwnerID:         owner.ID,
		Title:           "get out of bed",
		CompletionKeyID: key.ID,
		CreatedAt:       f.now,
	}
	if err := f.goalRepo.Create(ctx, goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return goal
}

func (f *fixture) befriend(t *testing.T, from, to models.User) {
	t.Helper()
	err := f.friends.Add(context.Background(), models.Friendship{UserID: from.ID, FriendID: to.ID, CreatedAt: f.now})
	if err != nil {
		t.Fatalf("add friendship: %v", err)
	}
}

func TestCreateCommitment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	due := f.nowMillis() + time.Hour.Milliseconds()
	c, err := f.svc.Create(ctx, owner, goal.ID, due)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.GoalID != goal.ID || c.Due != due || c.CreatedAt != f.nowMillis() {
		t.Fatalf("unexpected commitment: %+v", c)
	}
	if got := c.Status(f.nowMillis()); got != models.StatusPending {
		t.Fatalf("new commitment status = %q, want pending", got)
	}
}

func TestCreateCommitmentRejectsPastDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	for _, due := range []int64{f.nowMillis() - 1, f.nowMillis()} {
		if _, err := f.svc.Create(ctx, owner, goal.ID, due); !errors.Is(err, goob.ErrInvalidArgument) {
			t.Fatalf("Create(due=%d) = %v, want ErrInvalidArgument", due, err)
		}
	}
}

func TestCreateCommitmentOwnershipGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	stranger := f.addUser(t, "Mallory")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	due := f.nowMillis() + time.Hour.Milliseconds()
	if _, err := f.svc.Create(ctx, stranger, goal.ID, due); !errors.Is(err, goob.ErrNotYourGoal) {
		t.Fatalf("Create on foreign goal = %v, want ErrNotYourGoal", err)
	}

	goal.Archived = true
	if err := f.goalRepo.Update(ctx, goal); err != nil {
		t.Fatalf("archive goal: %v", err)
	}
	if _, err := f.svc.Create(ctx, owner, goal.ID, due); !errors.Is(err, goob.ErrGoalArchived) {
		t.Fatalf("Create on archived goal = %v, want ErrGoalArchived", err)
	}
}

func TestCancelCommitment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Cancel(ctx, owner, c.ID, "overslept"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	stored, err := f.commitments.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.CancelledAt == nil || *stored.CancelledAt != f.nowMillis() {
		t.Fatalf("CancelledAt = %v, want %d", stored.CancelledAt, f.nowMillis())
	}
	if stored.CancelReason == nil || *stored.CancelReason != "overslept" {
		t.Fatalf("CancelReason = %v, want overslept", stored.CancelReason)
	}

	// A second cancel reports the existing cancellation.
	if err := f.svc.Cancel(ctx, owner, c.ID, "again"); !errors.Is(err, goob.ErrAlreadyCancelled) {
		t.Fatalf("second Cancel = %v, want ErrAlreadyCancelled", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Cancel(ctx, owner, c.ID, "   "); !errors.Is(err, goob.ErrInvalidArgument) {
		t.Fatalf("Cancel without reason = %v, want ErrInvalidArgument", err)
	}
}

func TestCancelOverdueCommitment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.advance(2 * time.Minute)
	if err := f.svc.Cancel(ctx, owner, c.ID, "too late now"); !errors.Is(err, goob.ErrOverdue) {
		t.Fatalf("Cancel overdue = %v, want ErrOverdue", err)
	}
}

func TestUndoWithinWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.advance(UndoPeriod)
	if err := f.svc.Undo(ctx, owner, c.ID); err != nil {
		t.Fatalf("Undo at window boundary: %v", err)
	}

	if _, err := f.commitments.FindByID(ctx, c.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("undone commitment still present: %v", err)
	}
}

func TestUndoAfterWindowExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.advance(UndoPeriod + time.Millisecond)
	if err := f.svc.Undo(ctx, owner, c.ID); !errors.Is(err, goob.ErrUndoExpired) {
		t.Fatalf("Undo past window = %v, want ErrUndoExpired", err)
	}

	if _, err := f.commitments.FindByID(ctx, c.ID); err != nil {
		t.Fatalf("commitment should survive a rejected undo: %v", err)
	}
}

func TestCompleteByKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")
	other := f.addGoal(t, owner, "Hu27LpWd")

	due := f.nowMillis() + time.Hour.Milliseconds()
	first, err := f.svc.Create(ctx, owner, goal.ID, due)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Create(ctx, owner, goal.ID, due+1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	unrelated, err := f.svc.Create(ctx, owner, other.ID, due)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := f.svc.CompleteByKey(ctx, owner, "Zx91QmTa")
	if err != nil {
		t.Fatalf("CompleteByKey: %v", err)
	}
	if n != 2 {
		t.Fatalf("CompleteByKey completed %d, want 2", n)
	}

	stored, err := f.commitments.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.CompletedAt == nil || *stored.CompletedAt != f.nowMillis() {
		t.Fatalf("CompletedAt = %v, want %d", stored.CompletedAt, f.nowMillis())
	}

	// The goal under a different key is untouched.
	untouched, err := f.commitments.FindByID(ctx, unrelated.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if untouched.CompletedAt != nil {
		t.Fatal("commitment under a different key should stay pending")
	}

	// Completion is idempotent: nothing pending remains for this key.
	n, err = f.svc.CompleteByKey(ctx, owner, "Zx91QmTa")
	if err != nil {
		t.Fatalf("second CompleteByKey: %v", err)
	}
	if n != 0 {
		t.Fatalf("second CompleteByKey completed %d, want 0", n)
	}
}

func TestCompleteByKeyUnknownSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	if _, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := f.svc.CompleteByKey(ctx, owner, "nonsense")
	if err != nil {
		t.Fatalf("CompleteByKey: %v", err)
	}
	if n != 0 {
		t.Fatalf("unknown secret completed %d commitments, want 0", n)
	}
}

func TestCompleteByKeyIsCallerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")

	// Both users' goals share the same secret; completing as Bob must
	// never touch Alice's commitments.
	aliceGoal := f.addGoal(t, alice, "Zx91QmTa")
	bobGoal := f.addGoal(t, bob, "Zx91QmTa")

	due := f.nowMillis() + time.Hour.Milliseconds()
	aliceCommitment, err := f.svc.Create(ctx, alice, aliceGoal.ID, due)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Create(ctx, bob, bobGoal.ID, due); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := f.svc.CompleteByKey(ctx, bob, "Zx91QmTa")
	if err != nil {
		t.Fatalf("CompleteByKey: %v", err)
	}
	if n != 1 {
		t.Fatalf("CompleteByKey completed %d, want 1", n)
	}

	stored, err := f.commitments.FindByID(ctx, aliceCommitment.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.CompletedAt != nil {
		t.Fatal("another user's commitment was completed")
	}
}

func TestCompleteByKeySkipsNonPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	cancelled, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.Cancel(ctx, owner, cancelled.ID, "not today"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	overdue, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.advance(2 * time.Minute)
	n, err := f.svc.CompleteByKey(ctx, owner, "Zx91QmTa")
	if err != nil {
		t.Fatalf("CompleteByKey: %v", err)
	}
	if n != 0 {
		t.Fatalf("CompleteByKey completed %d, want 0", n)
	}

	stored, err := f.commitments.FindByID(ctx, overdue.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.CompletedAt != nil {
		t.Fatal("failed commitment must not be retroactively completed")
	}
}

func TestComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Pending commitments reject comments.
	if err := f.svc.Comment(ctx, owner, c.ID, "excuses"); !errors.Is(err, goob.ErrNotTerminal) {
		t.Fatalf("Comment on pending = %v, want ErrNotTerminal", err)
	}

	// Failed commitments accept them.
	f.advance(2 * time.Minute)
	if err := f.svc.Comment(ctx, owner, c.ID, "alarm did not fire"); err != nil {
		t.Fatalf("Comment on failed: %v", err)
	}

	stored, err := f.commitments.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Comment == nil || *stored.Comment != "alarm did not fire" {
		t.Fatalf("Comment = %v, want set", stored.Comment)
	}

	// Re-commenting replaces the text.
	if err := f.svc.Comment(ctx, owner, c.ID, "second thoughts"); err != nil {
		t.Fatalf("re-Comment: %v", err)
	}
	stored, _ = f.commitments.FindByID(ctx, c.ID)
	if stored.Comment == nil || *stored.Comment != "second thoughts" {
		t.Fatalf("Comment = %v, want replaced", stored.Comment)
	}
}

func TestCommentOnCompletedCommitment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.CompleteByKey(ctx, owner, "Zx91QmTa"); err != nil {
		t.Fatalf("CompleteByKey: %v", err)
	}

	if err := f.svc.Comment(ctx, owner, c.ID, "well done me"); !errors.Is(err, goob.ErrNotTerminal) {
		t.Fatalf("Comment on completed = %v, want ErrNotTerminal", err)
	}
}

func TestCommentSurvivesArchivedGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	c, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	f.advance(2 * time.Minute)
	goal.Archived = true
	if err := f.goalRepo.Update(ctx, goal); err != nil {
		t.Fatalf("archive goal: %v", err)
	}

	if err := f.svc.Comment(ctx, owner, c.ID, "archived, still sorry"); err != nil {
		t.Fatalf("Comment under archived goal: %v", err)
	}
}

func TestScold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")
	goal := f.addGoal(t, alice, "Zx91QmTa")
	f.befriend(t, alice, bob)

	c, err := f.svc.Create(ctx, alice, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Pending commitments cannot be scolded yet.
	if err := f.svc.Scold(ctx, bob, c.ID); !errors.Is(err, goob.ErrNotTerminal) {
		t.Fatalf("Scold pending = %v, want ErrNotTerminal", err)
	}

	f.advance(2 * time.Minute)
	if err := f.svc.Scold(ctx, bob, c.ID); err != nil {
		t.Fatalf("Scold failed commitment: %v", err)
	}

	scolds, err := f.svc.UnacknowledgedScolds(ctx, alice)
	if err != nil {
		t.Fatalf("UnacknowledgedScolds: %v", err)
	}
	if len(scolds) != 1 {
		t.Fatalf("got %d scolds, want 1", len(scolds))
	}
	if scolds[0].ScolderID != bob.ID || scolds[0].CommitmentID != c.ID {
		t.Fatalf("unexpected scold: %+v", scolds[0])
	}

	// Each user scolds a commitment at most once.
	if err := f.svc.Scold(ctx, bob, c.ID); !errors.Is(err, goob.ErrAlreadyScolded) {
		t.Fatalf("duplicate Scold = %v, want ErrAlreadyScolded", err)
	}

	if err := f.svc.AcknowledgeScold(ctx, alice, scolds[0].ID); err != nil {
		t.Fatalf("AcknowledgeScold: %v", err)
	}
	scolds, err = f.svc.UnacknowledgedScolds(ctx, alice)
	if err != nil {
		t.Fatalf("UnacknowledgedScolds: %v", err)
	}
	if len(scolds) != 0 {
		t.Fatalf("got %d scolds after acknowledge, want 0", len(scolds))
	}
}

func TestScoldVisibilityRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")
	stranger := f.addUser(t, "Mallory")
	goal := f.addGoal(t, alice, "Zx91QmTa")
	f.befriend(t, alice, bob)

	c, err := f.svc.Create(ctx, alice, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.advance(2 * time.Minute)

	// Owners cannot scold themselves.
	if err := f.svc.Scold(ctx, alice, c.ID); !errors.Is(err, goob.ErrForbidden) {
		t.Fatalf("self Scold = %v, want ErrForbidden", err)
	}

	// Non-friends cannot see the goal, so they cannot scold either.
	if err := f.svc.Scold(ctx, stranger, c.ID); !errors.Is(err, goob.ErrGoalNotShared) {
		t.Fatalf("stranger Scold = %v, want ErrGoalNotShared", err)
	}

	// Hiding the goal hides its commitments from everyone.
	goal.Hide = true
	if err := f.goalRepo.Update(ctx, goal); err != nil {
		t.Fatalf("hide goal: %v", err)
	}
	if err := f.svc.Scold(ctx, bob, c.ID); !errors.Is(err, goob.ErrGoalHidden) {
		t.Fatalf("Scold hidden goal = %v, want ErrGoalHidden", err)
	}
}

func TestAcknowledgeScoldOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")
	goal := f.addGoal(t, alice, "Zx91QmTa")
	f.befriend(t, alice, bob)

	c, err := f.svc.Create(ctx, alice, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.advance(2 * time.Minute)
	if err := f.svc.Scold(ctx, bob, c.ID); err != nil {
		t.Fatalf("Scold: %v", err)
	}

	scolds, err := f.svc.UnacknowledgedScolds(ctx, alice)
	if err != nil || len(scolds) != 1 {
		t.Fatalf("UnacknowledgedScolds = %v, %v", scolds, err)
	}

	// Only the scolded owner may acknowledge.
	if err := f.svc.AcknowledgeScold(ctx, bob, scolds[0].ID); !errors.Is(err, goob.ErrNotFound) {
		t.Fatalf("foreign AcknowledgeScold = %v, want ErrNotFound", err)
	}
}

func TestPendingWithGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	pending, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	failed, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Minute.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cancelled, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.Cancel(ctx, owner, cancelled.ID, "rain"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	f.advance(2 * time.Minute)
	entries, err := f.svc.PendingWithGoals(ctx, owner)
	if err != nil {
		t.Fatalf("PendingWithGoals: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d pending entries, want 1", len(entries))
	}
	if entries[0].Commitment.ID != pending.ID {
		t.Fatalf("pending entry = %s, want %s (failed was %s)", entries[0].Commitment.ID, pending.ID, failed.ID)
	}
	if entries[0].Goal.ID != goal.ID {
		t.Fatalf("pending entry goal = %s, want %s", entries[0].Goal.ID, goal.ID)
	}
}

func TestRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	goal := f.addGoal(t, owner, "Zx91QmTa")

	window := RecentWindow.Milliseconds()

	// Due just inside the window on either side.
	dueSoon, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+window)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	farOut, err := f.svc.Create(ctx, owner, goal.ID, f.nowMillis()+window+1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	recent, err := f.svc.Recent(ctx, owner)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != dueSoon.ID {
		t.Fatalf("Recent = %+v, want only the commitment due within the window (farOut %s)", recent, farOut.ID)
	}

	// A fresh cancellation shows up regardless of its due date.
	if err := f.svc.Cancel(ctx, owner, farOut.ID, "not happening"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	recent, err = f.svc.Recent(ctx, owner)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d recent commitments, want 2", len(recent))
	}
}

func TestOwnershipIsTransitiveThroughGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")
	goal := f.addGoal(t, alice, "Zx91QmTa")

	c, err := f.svc.Create(ctx, alice, goal.ID, f.nowMillis()+time.Hour.Milliseconds())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.Cancel(ctx, bob, c.ID, "not mine"); !errors.Is(err, goob.ErrNotYourGoal) {
		t.Fatalf("foreign Cancel = %v, want ErrNotYourGoal", err)
	}
	if err := f.svc.Undo(ctx, bob, c.ID); !errors.Is(err, goob.ErrNotYourGoal) {
		t.Fatalf("foreign Undo = %v, want ErrNotYourGoal", err)
	}
}

package goals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/keys"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

type fixture struct {
	users       *repositories.MemoryUserRepository
	friends     *repositories.MemoryFriendRepository
	goals       *repositories.MemoryGoalRepository
	commitments *repositories.MemoryCommitmentRepository
	keyRepo     *repositories.MemoryKeyRepository
	svc         *Service
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:   repositories.NewMemoryUserRepository(),
		friends: repositories.NewMemoryFriendRepository(),
		now:     time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC),
	}
	f.goals = repositories.NewMemoryGoalRepository()
	f.commitments = repositories.NewMemoryCommitmentRepository(f.goals)
	f.keyRepo = repositories.NewMemoryKeyRepository(f.goals)

	keyManager := keys.NewManager(f.keyRepo, f.goals)
	f.svc = NewService(f.goals, f.users, f.friends, f.commitments, keyManager).WithNowFunc(func() time.Time { return f.now })

	return f
}

func (f *fixture) addUser(t *testing.T, name string) models.User {
	t.Helper()
	user := models.User{ID: uuid.NewString(), Name: name, TokenDigest: uuid.NewString(), CreatedAt: f.now}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreateGoalMintsKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")

	goal, err := f.svc.Create(ctx, owner, "get out of bed", "before 7am", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if goal.OwnerID != owner.ID || goal.Title != "get out of bed" {
		t.Fatalf("unexpected goal: %+v", goal)
	}
	if goal.Hide || goal.Archived {
		t.Fatal("new goals must start visible and unarchived")
	}

	key, err := f.keyRepo.FindByID(ctx, goal.CompletionKeyID)
	if err != nil {
		t.Fatalf("minted key missing: %v", err)
	}
	if key.CreatorID != owner.ID {
		t.Fatalf("key creator = %s, want %s", key.CreatorID, owner.ID)
	}
	if len(key.Secret) != keys.SecretLength {
		t.Fatalf("key secret length = %d, want %d", len(key.Secret), keys.SecretLength)
	}
}

func TestCreateGoalAdoptsExplicitKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")

	first, err := f.svc.Create(ctx, owner, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	second, err := f.svc.Create(ctx, owner, "morning run", "", first.CompletionKeyID)
	if err != nil {
		t.Fatalf("Create with explicit key: %v", err)
	}
	if second.CompletionKeyID != first.CompletionKeyID {
		t.Fatalf("explicit key not adopted: %s != %s", second.CompletionKeyID, first.CompletionKeyID)
	}
}

func TestCreateGoalRejectsUnknownKey(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Alice")

	_, err := f.svc.Create(context.Background(), owner, "get out of bed", "", "no-such-key")
	if !errors.Is(err, goob.ErrNotFound) {
		t.Fatalf("Create with unknown key = %v, want ErrNotFound", err)
	}
}

func TestCreateGoalRequiresTitle(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "Alice")

	if _, err := f.svc.Create(context.Background(), owner, "   ", "", ""); !errors.Is(err, goob.ErrInvalidArgument) {
		t.Fatalf("Create without title = %v, want ErrInvalidArgument", err)
	}
}

func TestUpdateGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")

	goal, err := f.svc.Create(ctx, owner, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := f.svc.Update(ctx, owner, goal.ID, Patch{
		Title:       strPtr("rise and shine"),
		Description: strPtr("no snoozing"),
		Hide:        boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "rise and shine" || updated.Description != "no snoozing" || !updated.Hide {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	// Unset fields keep their values.
	updated, err = f.svc.Update(ctx, owner, goal.ID, Patch{Archived: boolPtr(true)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "rise and shine" || !updated.Hide || !updated.Archived {
		t.Fatalf("partial patch clobbered fields: %+v", updated)
	}

	// Archived goals can still be updated, which is how un-archiving works.
	updated, err = f.svc.Update(ctx, owner, goal.ID, Patch{Archived: boolPtr(false)})
	if err != nil {
		t.Fatalf("unarchive Update: %v", err)
	}
	if updated.Archived {
		t.Fatal("goal should be unarchived")
	}
}

func TestUpdateGoalOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")
	stranger := f.addUser(t, "Mallory")

	goal, err := f.svc.Create(ctx, owner, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Update(ctx, stranger, goal.ID, Patch{Hide: boolPtr(true)}); !errors.Is(err, goob.ErrNotYourGoal) {
		t.Fatalf("foreign Update = %v, want ErrNotYourGoal", err)
	}
	if _, err := f.svc.Update(ctx, owner, "missing", Patch{}); !errors.Is(err, goob.ErrNotFound) {
		t.Fatalf("Update missing goal = %v, want ErrNotFound", err)
	}
}

func TestPublicVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")
	stranger := f.addUser(t, "Mallory")

	goal, err := f.svc.Create(ctx, alice, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.friends.Add(ctx, models.Friendship{UserID: alice.ID, FriendID: bob.ID, CreatedAt: f.now}); err != nil {
		t.Fatalf("add friendship: %v", err)
	}

	// The owner always sees their goal.
	own, err := f.svc.Public(ctx, alice, goal.ID)
	if err != nil {
		t.Fatalf("owner Public: %v", err)
	}
	if !own.IsOwn || own.OwnerName != "Alice" {
		t.Fatalf("unexpected owner view: %+v", own)
	}

	// A friend the owner has added sees it too.
	shared, err := f.svc.Public(ctx, bob, goal.ID)
	if err != nil {
		t.Fatalf("friend Public: %v", err)
	}
	if shared.IsOwn {
		t.Fatal("friend view must not be marked as own")
	}

	// Outsiders are refused.
	if _, err := f.svc.Public(ctx, stranger, goal.ID); !errors.Is(err, goob.ErrGoalNotShared) {
		t.Fatalf("stranger Public = %v, want ErrGoalNotShared", err)
	}
}

func TestPublicVisibilityIsDirectional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")

	goal, err := f.svc.Create(ctx, alice, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Bob adding Alice does not grant Bob access; only the owner's own
	// edge shares their goals.
	if err := f.friends.Add(ctx, models.Friendship{UserID: bob.ID, FriendID: alice.ID, CreatedAt: f.now}); err != nil {
		t.Fatalf("add friendship: %v", err)
	}
	if _, err := f.svc.Public(ctx, bob, goal.ID); !errors.Is(err, goob.ErrGoalNotShared) {
		t.Fatalf("reverse-edge Public = %v, want ErrGoalNotShared", err)
	}
}

func TestPublicHiddenAndArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")
	bob := f.addUser(t, "Bob")

	goal, err := f.svc.Create(ctx, alice, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.friends.Add(ctx, models.Friendship{UserID: alice.ID, FriendID: bob.ID, CreatedAt: f.now}); err != nil {
		t.Fatalf("add friendship: %v", err)
	}

	if _, err := f.svc.Update(ctx, alice, goal.ID, Patch{Hide: boolPtr(true)}); err != nil {
		t.Fatalf("hide goal: %v", err)
	}
	if _, err := f.svc.Public(ctx, bob, goal.ID); !errors.Is(err, goob.ErrGoalHidden) {
		t.Fatalf("hidden Public = %v, want ErrGoalHidden", err)
	}

	// The owner still sees a hidden goal.
	if _, err := f.svc.Public(ctx, alice, goal.ID); err != nil {
		t.Fatalf("owner Public on hidden goal: %v", err)
	}

	if _, err := f.svc.Update(ctx, alice, goal.ID, Patch{Hide: boolPtr(false), Archived: boolPtr(true)}); err != nil {
		t.Fatalf("archive goal: %v", err)
	}
	if _, err := f.svc.Public(ctx, bob, goal.ID); !errors.Is(err, goob.ErrGoalArchived) {
		t.Fatalf("archived Public = %v, want ErrGoalArchived", err)
	}
}

func TestPublicIncludesCommitments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "Alice")

	goal, err := f.svc.Create(ctx, alice, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c := models.Commitment{ID: uuid.NewString(), GoalID: goal.ID, Due: f.now.UnixMilli() + 1000, CreatedAt: f.now.UnixMilli()}
	if err := f.commitments.Create(ctx, c); err != nil {
		t.Fatalf("create commitment: %v", err)
	}

	view, err := f.svc.Public(ctx, alice, goal.ID)
	if err != nil {
		t.Fatalf("Public: %v", err)
	}
	if len(view.Commitments) != 1 || view.Commitments[0].ID != c.ID {
		t.Fatalf("unexpected commitments: %+v", view.Commitments)
	}
}

func TestRequireOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "Alice")

	goal, err := f.svc.Create(ctx, owner, "get out of bed", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Update(ctx, owner, goal.ID, Patch{Archived: boolPtr(true)}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	if _, err := f.svc.RequireOwned(ctx, owner, goal.ID, true); !errors.Is(err, goob.ErrGoalArchived) {
		t.Fatalf("RequireOwned(unarchived) = %v, want ErrGoalArchived", err)
	}
	if _, err := f.svc.RequireOwned(ctx, owner, goal.ID, false); err != nil {
		t.Fatalf("RequireOwned(any) = %v", err)
	}
}

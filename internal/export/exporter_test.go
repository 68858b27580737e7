package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

type memoryStorage struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{saved: make(map[string][]byte)}
}

func (s *memoryStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.saved[name] = buf.Bytes()
	s.mu.Unlock()
	return "memory://" + name, nil
}

func seededBuilder(t *testing.T) (*SnapshotBuilder, models.User) {
	t.Helper()
	ctx := context.Background()

	friends := repositories.NewMemoryFriendRepository()
	goalRepo := repositories.NewMemoryGoalRepository()
	commitments := repositories.NewMemoryCommitmentRepository(goalRepo)
	keys := repositories.NewMemoryKeyRepository(goalRepo)

	user := models.User{ID: uuid.NewString(), Name: "Alice", CreatedAt: time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)}

	key := models.CompletionKey{ID: uuid.NewString(), CreatorID: user.ID, Name: "front door", Secret: "Zx91QmTa"}
	if err := keys.Create(ctx, key); err != nil {
		t.Fatalf("create key: %v", err)
	}
	goal := models.Goal{ID: uuid.NewString(), OwnerID: user.ID, Title: "get out of bed", CompletionKeyID: key.ID, CreatedAt: user.CreatedAt}
	if err := goalRepo.Create(ctx, goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	c := models.Commitment{ID: uuid.NewString(), GoalID: goal.ID, Due: 1714560000000, CreatedAt: 1714550000000}
	if err := commitments.Create(ctx, c); err != nil {
		t.Fatalf("create commitment: %v", err)
	}
	if err := friends.Add(ctx, models.Friendship{UserID: user.ID, FriendID: uuid.NewString(), CreatedAt: user.CreatedAt}); err != nil {
		t.Fatalf("add friendship: %v", err)
	}

	return NewSnapshotBuilder(friends, goalRepo, commitments, keys), user
}

func waitForFinalStatus(t *testing.T, e *Exporter, jobID, userID string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := e.Status(jobID, userID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if job.Status != JobStatusPending {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("export job never finished")
	return Job{}
}

func TestExporterRunsJob(t *testing.T) {
	builder, user := seededBuilder(t)
	storage := newMemoryStorage()

	e := NewExporter(builder, storage, Config{QueueSize: 4, Workers: 1, Retention: time.Minute}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	}()

	job, err := e.Enqueue(context.Background(), user)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != JobStatusPending || job.UserID != user.ID {
		t.Fatalf("unexpected job: %+v", job)
	}

	done := waitForFinalStatus(t, e, job.ID, user.ID)
	if done.Status != JobStatusReady {
		t.Fatalf("job status = %q, want ready", done.Status)
	}
	if done.Location == "" {
		t.Fatal("finished job has no location")
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()
	if len(storage.saved) != 1 {
		t.Fatalf("saved %d objects, want 1", len(storage.saved))
	}
	for _, body := range storage.saved {
		var snapshot Snapshot
		if err := json.Unmarshal(body, &snapshot); err != nil {
			t.Fatalf("uploaded snapshot is not valid JSON: %v", err)
		}
		if snapshot.User.ID != user.ID {
			t.Fatalf("snapshot user = %s, want %s", snapshot.User.ID, user.ID)
		}
		if len(snapshot.Goals) != 1 || snapshot.Goals[0].CompletionKeySecret != "Zx91QmTa" {
			t.Fatalf("snapshot goals = %+v", snapshot.Goals)
		}
		if len(snapshot.Commitments) != 1 || len(snapshot.FriendIDs) != 1 {
			t.Fatalf("snapshot incomplete: %+v", snapshot)
		}
	}
}

func TestExporterStatusIsUserScoped(t *testing.T) {
	builder, user := seededBuilder(t)
	e := NewExporter(builder, newMemoryStorage(), Config{}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	}()

	job, err := e.Enqueue(context.Background(), user)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if _, err := e.Status(job.ID, "someone-else"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("foreign Status = %v, want ErrJobNotFound", err)
	}
	if _, err := e.Status("unknown-job", user.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("unknown Status = %v, want ErrJobNotFound", err)
	}
}

func TestExporterFailedUpload(t *testing.T) {
	builder, user := seededBuilder(t)
	storage := newMemoryStorage()
	storage.err = errors.New("bucket unavailable")

	e := NewExporter(builder, storage, Config{}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	}()

	job, err := e.Enqueue(context.Background(), user)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := waitForFinalStatus(t, e, job.ID, user.ID)
	if done.Status != JobStatusFailed {
		t.Fatalf("job status = %q, want failed", done.Status)
	}
}

func TestExporterEnqueueAfterShutdown(t *testing.T) {
	builder, user := seededBuilder(t)
	e := NewExporter(builder, newMemoryStorage(), Config{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if _, err := e.Enqueue(context.Background(), user); !errors.Is(err, ErrExporterClosed) {
		t.Fatalf("Enqueue after shutdown = %v, want ErrExporterClosed", err)
	}
}

func TestSnapshotOmitsTokenDigest(t *testing.T) {
	builder, user := seededBuilder(t)
	user.TokenDigest = "super-secret-digest"

	snapshot, err := builder.Build(context.Background(), user)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if bytes.Contains(body, []byte("super-secret-digest")) {
		t.Fatal("token digest leaked into the export")
	}
}

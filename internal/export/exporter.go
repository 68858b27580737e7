// Package export produces downloadable account-data snapshots. Jobs run on
// a background worker pool; finished jobs are kept in memory for a bounded
// retention window and then forgotten.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/models"
)

// Job statuses.
const (
	JobStatusPending = "pending"
	JobStatusReady   = "ready"
	JobStatusFailed  = "failed"
)

var (
	// ErrExporterClosed indicates the worker pool has been shut down.
	ErrExporterClosed = errors.New("exporter closed")
	// ErrJobNotFound indicates the job id is unknown or its retention expired.
	ErrJobNotFound = errors.New("export job not found")
	// ErrStorageUnavailable indicates no object store is configured.
	ErrStorageUnavailable = errors.New("export storage unavailable")
)

// SnapshotStorage persists a finished snapshot and returns its location.
type SnapshotStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Job tracks one export request.
type Job struct {
	ID        string
	UserID    string
	Status    string
	Location  string
	CreatedAt time.Time
}

// Config controls the concurrency and retention characteristics of the
// exporter.
type Config struct {
	QueueSize int
	Workers   int
	Retention time.Duration
}

// Exporter runs export jobs on a worker pool.
type Exporter struct {
	builder *SnapshotBuilder
	storage SnapshotStorage
	logger  *slog.Logger

	jobs   chan exportJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	registry *jobRegistry
}

type exportJob struct {
	id   string
	user models.User
}

// NewExporter constructs a background exporter.
func NewExporter(builder *SnapshotBuilder, storage SnapshotStorage, cfg Config, logger *slog.Logger) *Exporter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Exporter{
		builder:  builder,
		storage:  storage,
		logger:   logger,
		jobs:     make(chan exportJob, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		registry: newJobRegistry(cfg.Retention),
	}

	e.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go e.worker()
	}

	return e
}

// Enqueue schedules an export for the user and returns the pending job.
func (e *Exporter) Enqueue(ctx context.Context, user models.User) (Job, error) {
	if e.storage == nil {
		return Job{}, ErrStorageUnavailable
	}

	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case <-e.ctx.Done():
		return Job{}, ErrExporterClosed
	default:
	}

	job := Job{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	e.registry.put(job)

	select {
	case <-ctx.Done():
		e.registry.delete(job.ID)
		return Job{}, ctx.Err()
	case <-e.ctx.Done():
		e.registry.delete(job.ID)
		return Job{}, ErrExporterClosed
	case e.jobs <- exportJob{id: job.ID, user: user}:
		return job, nil
	}
}

// Status returns the job's current state. A job that belongs to a different
// user is reported as not found rather than leaked.
func (e *Exporter) Status(jobID, userID string) (Job, error) {
	job, ok := e.registry.get(jobID)
	if !ok || job.UserID != userID {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.once.Do(func() {
		e.cancel()
		close(e.jobs)
	})

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (e *Exporter) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case job, ok := <-e.jobs:
			if !ok {
				return
			}
			e.handleJob(job)
		}
	}
}

func (e *Exporter) handleJob(job exportJob) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snapshot, err := e.builder.Build(ctx, job.user)
	if err != nil {
		e.logger.Error("build export snapshot", "jobId", job.id, "userId", job.user.ID, "error", err)
		e.registry.setStatus(job.id, JobStatusFailed, "")
		return
	}

	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		e.logger.Error("encode export snapshot", "jobId", job.id, "error", err)
		e.registry.setStatus(job.id, JobStatusFailed, "")
		return
	}

	name := path.Join("exports", job.user.ID, fmt.Sprintf("%s.json", job.id))
	location, err := e.storage.Save(ctx, name, bytes.NewReader(body))
	if err != nil {
		e.logger.Error("upload export snapshot", "jobId", job.id, "error", err)
		e.registry.setStatus(job.id, JobStatusFailed, "")
		return
	}

	e.registry.setStatus(job.id, JobStatusReady, location)
}

// jobRegistry holds jobs with a retention TTL that starts once a job
// reaches a final status, so download locations do not accumulate forever.
type jobRegistry struct {
	retention time.Duration

	mu      sync.RWMutex
	entries map[string]registryEntry
}

type registryEntry struct {
	job     Job
	expires time.Time
}

func newJobRegistry(retention time.Duration) *jobRegistry {
	return &jobRegistry{
		retention: retention,
		entries:   make(map[string]registryEntry),
	}
}

func (r *jobRegistry) put(job Job) {
	r.mu.Lock()
	r.entries[job.ID] = registryEntry{job: job}
	r.sweepLocked(time.Now())
	r.mu.Unlock()
}

func (r *jobRegistry) get(id string) (Job, bool) {
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return Job{}, false
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		r.delete(id)
		return Job{}, false
	}
	return entry.job, true
}

func (r *jobRegistry) setStatus(id, status, location string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return
	}
	entry.job.Status = status
	entry.job.Location = location
	entry.expires = time.Now().Add(r.retention)
	r.entries[id] = entry
}

func (r *jobRegistry) delete(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *jobRegistry) sweepLocked(now time.Time) {
	for id, entry := range r.entries {
		if !entry.expires.IsZero() && now.After(entry.expires) {
			delete(r.entries, id)
		}
	}
}

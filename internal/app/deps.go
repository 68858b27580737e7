package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goob/backend/internal/commitments"
	"github.com/goob/backend/internal/config"
	"github.com/goob/backend/internal/db"
	"github.com/goob/backend/internal/export"
	"github.com/goob/backend/internal/goals"
	"github.com/goob/backend/internal/handlers"
	"github.com/goob/backend/internal/identity"
	"github.com/goob/backend/internal/keys"
	"github.com/goob/backend/internal/middleware"
	"github.com/goob/backend/internal/repositories"
	"github.com/goob/backend/internal/social"
	"github.com/goob/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the
// HTTP handlers. The returned exporter is nil when no export bucket is
// configured; callers must Shutdown it when present.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *export.Exporter, error) {
	users := repositories.NewPostgresUserRepository(pool)
	friends := repositories.NewPostgresFriendRepository(pool)
	goalRepo := repositories.NewPostgresGoalRepository(pool)
	commitmentRepo := repositories.NewPostgresCommitmentRepository(pool)
	keyRepo := repositories.NewPostgresKeyRepository(pool)
	scoldRepo := repositories.NewPostgresScoldRepository(pool)

	keyManager := keys.NewManager(keyRepo, goalRepo)
	goalService := goals.NewService(goalRepo, users, friends, commitmentRepo, keyManager)
	commitmentService := commitments.NewService(commitmentRepo, goalRepo, keyRepo, scoldRepo, friends, goalService)
	socialService := social.NewService(users, friends, goalRepo)
	resolver := identity.NewResolver(users)

	completeLimiter := middleware.NewIPRateLimiter(cfg.KeyCompleteRatePerMinute, time.Minute, cfg.KeyCompleteBurst, 10*time.Minute)

	deps := handlers.Dependencies{
		Identity:        resolver,
		Users:           users,
		Social:          socialService,
		Goals:           goalService,
		Commitments:     commitmentService,
		Keys:            keyManager,
		CompleteLimiter: completeLimiter,
	}

	var exporter *export.Exporter
	if cfg.ObjectStore.Bucket != "" {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("init export storage: %w", err)
		}

		builder := export.NewSnapshotBuilder(friends, goalRepo, commitmentRepo, keyRepo)
		exporter = export.NewExporter(builder, store, export.Config{
			QueueSize: cfg.ExportQueueSize,
			Workers:   cfg.ExportWorkers,
			Retention: cfg.ExportRetention,
		}, logger)
		deps.Exports = exporter
	}

	return deps, exporter, nil
}

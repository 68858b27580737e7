// Package keys manages completion keys: shared-secret capabilities that
// authorize completing pending commitments of the goals that point at them.
package keys

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goob/backend/internal/goob"
	"github.com/goob/backend/internal/models"
	"github.com/goob/backend/internal/repositories"
)

// SecretLength is the length of a completion key secret. Over the full
// alphanumeric alphabet this gives 62^8 possible secrets, which makes an
// accidental cross-goal collision negligibly likely.
const SecretLength = 8

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var nameAdjectives = []string{
	"brisk", "mellow", "stubborn", "punctual", "drowsy",
	"spry", "earnest", "restless", "steadfast", "groggy",
}

var nameNouns = []string{
	"otter", "kettle", "sunrise", "anchor", "lantern",
	"pebble", "compass", "teapot", "sparrow", "alarm",
}

// Manager mints, rotates, shares and garbage-collects completion keys.
type Manager struct {
	keys  repositories.KeyRepository
	goals repositories.GoalRepository
}

// NewManager constructs a key manager.
func NewManager(keys repositories.KeyRepository, goals repositories.GoalRepository) *Manager {
	if keys == nil {
		panic("keys: key repository must not be nil")
	}
	return &Manager{keys: keys, goals: goals}
}

// Mint creates and stores a fresh key with a random display name and a
// random 8-character alphanumeric secret, creator = caller.
func (m *Manager) Mint(ctx context.Context, creator models.User) (models.CompletionKey, error) {
	secret, err := randomSecret()
	if err != nil {
		return models.CompletionKey{}, fmt.Errorf("generate key secret: %w", err)
	}

	name, err := randomName()
	if err != nil {
		return models.CompletionKey{}, fmt.Errorf("generate key name: %w", err)
	}

	key := models.CompletionKey{
		ID:        uuid.NewString(),
		CreatorID: creator.ID,
		Name:      name,
		Secret:    secret,
	}

	if err := m.keys.Create(ctx, key); err != nil {
		return models.CompletionKey{}, fmt.Errorf("store completion key: %w", err)
	}

	return key, nil
}

// Ensure returns a key id for the caller: the explicit key when one is
// supplied (adopted as-is, enabling deliberate key sharing across goals and
// users), otherwise a freshly minted one.
func (m *Manager) Ensure(ctx context.Context, user models.User, explicitKeyID string) (string, error) {
	if explicitKeyID != "" {
		if _, err := m.keys.FindByID(ctx, explicitKeyID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return "", fmt.Errorf("completion key not found: %w", goob.ErrNotFound)
			}
			return "", fmt.Errorf("look up completion key: %w", err)
		}
		return explicitKeyID, nil
	}

	key, err := m.Mint(ctx, user)
	if err != nil {
		return "", err
	}
	return key.ID, nil
}

// Rotate replaces the goal's key pointer and then sweeps keys no longer
// referenced by any goal. The goal must be owned by the caller and
// unarchived. Attach happens strictly before the sweep.
func (m *Manager) Rotate(ctx context.Context, user models.User, goalID, explicitKeyID string) (string, error) {
	goal, err := m.goals.FindByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("goal not found: %w", goob.ErrNotFound)
		}
		return "", fmt.Errorf("look up goal: %w", err)
	}
	if goal.OwnerID != user.ID {
		return "", goob.ErrNotYourGoal
	}
	if goal.Archived {
		return "", goob.ErrGoalArchived
	}

	keyID, err := m.Ensure(ctx, user, explicitKeyID)
	if err != nil {
		return "", err
	}

	if err := m.keys.AttachAndSweep(ctx, goalID, keyID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("goal not found: %w", goob.ErrNotFound)
		}
		return "", fmt.Errorf("rotate completion key: %w", err)
	}

	return keyID, nil
}

// Rename changes the key's display name. Only the original creator may
// rename a key.
func (m *Manager) Rename(ctx context.Context, user models.User, keyID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("key name is required: %w", goob.ErrInvalidArgument)
	}

	key, err := m.keys.FindByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("completion key not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("look up completion key: %w", err)
	}
	if key.CreatorID != user.ID {
		return goob.ErrNotYourKey
	}

	if err := m.keys.Rename(ctx, keyID, name); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("completion key not found: %w", goob.ErrNotFound)
		}
		return fmt.Errorf("rename completion key: %w", err)
	}

	return nil
}

// Get fetches a key by id. Swept keys are gone for good: the lookup fails
// ErrNotFound after garbage collection.
func (m *Manager) Get(ctx context.Context, keyID string) (models.CompletionKey, error) {
	key, err := m.keys.FindByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.CompletionKey{}, fmt.Errorf("completion key not found: %w", goob.ErrNotFound)
		}
		return models.CompletionKey{}, fmt.Errorf("look up completion key: %w", err)
	}
	return key, nil
}

func randomSecret() (string, error) {
	out := make([]byte, SecretLength)
	for i := range out {
		idx, err := randomIndex(len(secretAlphabet))
		if err != nil {
			return "", err
		}
		out[i] = secretAlphabet[idx]
	}
	return string(out), nil
}

func randomName() (string, error) {
	adj, err := randomIndex(len(nameAdjectives))
	if err != nil {
		return "", err
	}
	noun, err := randomIndex(len(nameNouns))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("random key %s %s", nameAdjectives[adj], nameNouns[noun]), nil
}

// randomIndex returns a uniform value in [0, n) via rejection sampling, so
// the secret alphabet is not biased by the modulus.
func randomIndex(n int) (int, error) {
	limit := 256 - (256 % n)
	var buf [1]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		if int(buf[0]) < limit {
			return int(buf[0]) % n, nil
		}
	}
}

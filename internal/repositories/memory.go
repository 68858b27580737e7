package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/goob/backend/internal/models"
)

// The Memory* repositories back tests and database-less local development.
// Each guards its map with a mutex and runs the same state preconditions as
// the SQL statements, so the conditional-update contract holds on both
// backends.

// MemoryUserRepository implements UserRepository in memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserRepository returns an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.users {
		if existing.TokenDigest == user.TokenDigest {
			return ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) FindByTokenDigest(_ context.Context, digest string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.TokenDigest == digest {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Rename(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Name = name
	r.users[id] = user
	return nil
}

// MemoryFriendRepository implements FriendRepository in memory.
type MemoryFriendRepository struct {
	mu    sync.RWMutex
	edges []models.Friendship
}

// NewMemoryFriendRepository returns an empty in-memory friend repository.
func NewMemoryFriendRepository() *MemoryFriendRepository {
	return &MemoryFriendRepository{}
}

func (r *MemoryFriendRepository) Add(_ context.Context, friendship models.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, edge := range r.edges {
		if edge.UserID == friendship.UserID && edge.FriendID == friendship.FriendID {
			return ErrConflict
		}
	}
	r.edges = append(r.edges, friendship)
	return nil
}

func (r *MemoryFriendRepository) Remove(_ context.Context, userID, friendID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, edge := range r.edges {
		if edge.UserID == userID && edge.FriendID == friendID {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryFriendRepository) ListFriendIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, edge := range r.edges {
		if edge.UserID == userID {
			ids = append(ids, edge.FriendID)
		}
	}
	return ids, nil
}

func (r *MemoryFriendRepository) Exists(_ context.Context, userID, friendID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, edge := range r.edges {
		if edge.UserID == userID && edge.FriendID == friendID {
			return true, nil
		}
	}
	return false, nil
}

// MemoryGoalRepository implements GoalRepository in memory.
type MemoryGoalRepository struct {
	mu    sync.RWMutex
	goals map[string]models.Goal
}

// NewMemoryGoalRepository returns an empty in-memory goal repository.
func NewMemoryGoalRepository() *MemoryGoalRepository {
	return &MemoryGoalRepository{goals: make(map[string]models.Goal)}
}

func (r *MemoryGoalRepository) Create(_ context.Context, goal models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.goals[goal.ID]; ok {
		return ErrConflict
	}
	r.goals[goal.ID] = goal
	return nil
}

func (r *MemoryGoalRepository) FindByID(_ context.Context, id string) (models.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goal, ok := r.goals[id]
	if !ok {
		return models.Goal{}, ErrNotFound
	}
	return goal, nil
}

func (r *MemoryGoalRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var goals []models.Goal
	for _, goal := range r.goals {
		if goal.OwnerID == ownerID {
			goals = append(goals, goal)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.Before(goals[j].CreatedAt) })
	return goals, nil
}

func (r *MemoryGoalRepository) Update(_ context.Context, goal models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.goals[goal.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = goal.Title
	existing.Description = goal.Description
	existing.Hide = goal.Hide
	existing.Archived = goal.Archived
	r.goals[goal.ID] = existing
	return nil
}

// setCompletionKey is used by MemoryKeyRepository's attach step.
func (r *MemoryGoalRepository) setCompletionKey(goalID, keyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	goal, ok := r.goals[goalID]
	if !ok {
		return ErrNotFound
	}
	goal.CompletionKeyID = keyID
	r.goals[goalID] = goal
	return nil
}

func (r *MemoryGoalRepository) referencedKeyIDs() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	used := make(map[string]struct{}, len(r.goals))
	for _, goal := range r.goals {
		used[goal.CompletionKeyID] = struct{}{}
	}
	return used
}

// MemoryCommitmentRepository implements CommitmentRepository in memory.
type MemoryCommitmentRepository struct {
	mu          sync.RWMutex
	commitments map[string]models.Commitment
	goals       *MemoryGoalRepository
}

// NewMemoryCommitmentRepository returns an in-memory commitment repository.
// The goal repository is needed to resolve owner-scoped listings.
func NewMemoryCommitmentRepository(goals *MemoryGoalRepository) *MemoryCommitmentRepository {
	return &MemoryCommitmentRepository{
		commitments: make(map[string]models.Commitment),
		goals:       goals,
	}
}

func (r *MemoryCommitmentRepository) Create(_ context.Context, commitment models.Commitment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commitments[commitment.ID]; ok {
		return ErrConflict
	}
	commitment.CompletedAt = nil
	commitment.CancelledAt = nil
	commitment.CancelReason = nil
	commitment.Comment = nil
	r.commitments[commitment.ID] = commitment
	return nil
}

func (r *MemoryCommitmentRepository) FindByID(_ context.Context, id string) (models.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commitment, ok := r.commitments[id]
	if !ok {
		return models.Commitment{}, ErrNotFound
	}
	return commitment, nil
}

func (r *MemoryCommitmentRepository) ListByGoal(_ context.Context, goalID string) ([]models.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var commitments []models.Commitment
	for _, commitment := range r.commitments {
		if commitment.GoalID == goalID {
			commitments = append(commitments, commitment)
		}
	}
	sortCommitments(commitments)
	return commitments, nil
}

func (r *MemoryCommitmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Commitment, error) {
	goals, err := r.goals.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]struct{}, len(goals))
	for _, goal := range goals {
		owned[goal.ID] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var commitments []models.Commitment
	for _, commitment := range r.commitments {
		if _, ok := owned[commitment.GoalID]; ok {
			commitments = append(commitments, commitment)
		}
	}
	sortCommitments(commitments)
	return commitments, nil
}

func (r *MemoryCommitmentRepository) Complete(_ context.Context, id string, nowMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	commitment, ok := r.commitments[id]
	if !ok {
		return ErrNotFound
	}
	if commitment.Status(nowMillis) != models.StatusPending {
		return ErrConflict
	}
	at := nowMillis
	commitment.CompletedAt = &at
	r.commitments[id] = commitment
	return nil
}

func (r *MemoryCommitmentRepository) CompleteAllPending(_ context.Context, goalID string, nowMillis int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, commitment := range r.commitments {
		if commitment.GoalID != goalID {
			continue
		}
		if commitment.Status(nowMillis) != models.StatusPending {
			continue
		}
		at := nowMillis
		commitment.CompletedAt = &at
		r.commitments[id] = commitment
		count++
	}
	return count, nil
}

func (r *MemoryCommitmentRepository) Cancel(_ context.Context, id, reason string, nowMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	commitment, ok := r.commitments[id]
	if !ok {
		return ErrNotFound
	}
	if commitment.Status(nowMillis) != models.StatusPending {
		return ErrConflict
	}
	at := nowMillis
	commitment.CancelledAt = &at
	commitment.CancelReason = &reason
	r.commitments[id] = commitment
	return nil
}

func (r *MemoryCommitmentRepository) SetComment(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	commitment, ok := r.commitments[id]
	if !ok {
		return ErrNotFound
	}
	commitment.Comment = &text
	r.commitments[id] = commitment
	return nil
}

func (r *MemoryCommitmentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commitments[id]; !ok {
		return ErrNotFound
	}
	delete(r.commitments, id)
	return nil
}

func sortCommitments(commitments []models.Commitment) {
	sort.Slice(commitments, func(i, j int) bool {
		if commitments[i].CreatedAt != commitments[j].CreatedAt {
			return commitments[i].CreatedAt < commitments[j].CreatedAt
		}
		return commitments[i].ID < commitments[j].ID
	})
}

// MemoryKeyRepository implements KeyRepository in memory.
type MemoryKeyRepository struct {
	mu    sync.RWMutex
	keys  map[string]models.CompletionKey
	goals *MemoryGoalRepository
}

// NewMemoryKeyRepository returns an in-memory key repository. The goal
// repository is needed for the attach step and the reference sweep.
func NewMemoryKeyRepository(goals *MemoryGoalRepository) *MemoryKeyRepository {
	return &MemoryKeyRepository{
		keys:  make(map[string]models.CompletionKey),
		goals: goals,
	}
}

func (r *MemoryKeyRepository) Create(_ context.Context, key models.CompletionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key.ID]; ok {
		return ErrConflict
	}
	r.keys[key.ID] = key
	return nil
}

func (r *MemoryKeyRepository) FindByID(_ context.Context, id string) (models.CompletionKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[id]
	if !ok {
		return models.CompletionKey{}, ErrNotFound
	}
	return key, nil
}

func (r *MemoryKeyRepository) Rename(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return ErrNotFound
	}
	key.Name = name
	r.keys[id] = key
	return nil
}

func (r *MemoryKeyRepository) AttachAndSweep(_ context.Context, goalID, keyID string) error {
	// Attach strictly before the sweep so the incoming key is referenced
	// by the time unreferenced keys are considered for deletion.
	if err := r.goals.setCompletionKey(goalID, keyID); err != nil {
		return err
	}

	used := r.goals.referencedKeyIDs()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.keys {
		if _, ok := used[id]; !ok {
			delete(r.keys, id)
		}
	}
	return nil
}

// MemoryScoldRepository implements ScoldRepository in memory.
type MemoryScoldRepository struct {
	mu     sync.RWMutex
	scolds map[string]models.Scold
}

// NewMemoryScoldRepository returns an empty in-memory scold repository.
func NewMemoryScoldRepository() *MemoryScoldRepository {
	return &MemoryScoldRepository{scolds: make(map[string]models.Scold)}
}

func (r *MemoryScoldRepository) Create(_ context.Context, scold models.Scold) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.scolds {
		if existing.CommitmentID == scold.CommitmentID && existing.ScolderID == scold.ScolderID {
			return ErrConflict
		}
	}
	r.scolds[scold.ID] = scold
	return nil
}

func (r *MemoryScoldRepository) Exists(_ context.Context, commitmentID, scolderID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, scold := range r.scolds {
		if scold.CommitmentID == commitmentID && scold.ScolderID == scolderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryScoldRepository) ListUnacknowledged(_ context.Context, ownerID string) ([]models.Scold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var scolds []models.Scold
	for _, scold := range r.scolds {
		if scold.OwnerID == ownerID && !scold.Acknowledged {
			scolds = append(scolds, scold)
		}
	}
	sort.Slice(scolds, func(i, j int) bool { return scolds[i].CreatedAt > scolds[j].CreatedAt })
	return scolds, nil
}

func (r *MemoryScoldRepository) Acknowledge(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scold, ok := r.scolds[id]
	if !ok || scold.OwnerID != ownerID {
		return ErrNotFound
	}
	scold.Acknowledged = true
	r.scolds[id] = scold
	return nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
var _ FriendRepository = (*MemoryFriendRepository)(nil)
var _ GoalRepository = (*MemoryGoalRepository)(nil)
var _ CommitmentRepository = (*MemoryCommitmentRepository)(nil)
var _ KeyRepository = (*MemoryKeyRepository)(nil)
var _ ScoldRepository = (*MemoryScoldRepository)(nil)

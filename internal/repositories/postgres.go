package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/goob/backend/internal/db"
	"github.com/goob/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, name, token_digest, created_at)
        VALUES ($1, $2, $3, $4)
    `, user.ID, user.Name, user.TokenDigest, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, token_digest, created_at
        FROM users
        WHERE id = $1
    `, id)

	return scanUser(row)
}

// FindByTokenDigest fetches a user by the digest of their identity token.
func (r *PostgresUserRepository) FindByTokenDigest(ctx context.Context, digest string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, name, token_digest, created_at
        FROM users
        WHERE token_digest = $1
    `, digest)

	return scanUser(row)
}

// Rename updates a user's display name.
func (r *PostgresUserRepository) Rename(ctx context.Context, id, name string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET name = $2
        WHERE id = $1
    `, id, name)
	if err != nil {
		return fmt.Errorf("update user name: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.TokenDigest, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// PostgresFriendRepository provides PostgreSQL-backed persistence for
// directional friendship edges.
type PostgresFriendRepository struct {
	pool db.Pool
}

// NewPostgresFriendRepository constructs a friend repository backed by PostgreSQL.
func NewPostgresFriendRepository(pool db.Pool) *PostgresFriendRepository {
	return &PostgresFriendRepository{pool: pool}
}

// Add persists a new friendship edge.
func (r *PostgresFriendRepository) Add(ctx context.Context, friendship models.Friendship) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO friendships (user_id, friend_id, created_at)
        VALUES ($1, $2, $3)
    `, friendship.UserID, friendship.FriendID, friendship.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert friendship: %w", err)
	}

	return nil
}

// Remove deletes the friendship edge from userID to friendID.
func (r *PostgresFriendRepository) Remove(ctx context.Context, userID, friendID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM friendships
        WHERE user_id = $1 AND friend_id = $2
    `, userID, friendID)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListFriendIDs returns the ids the user has added, oldest first.
func (r *PostgresFriendRepository) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT friend_id
        FROM friendships
        WHERE user_id = $1
        ORDER BY created_at ASC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}

	return ids, nil
}

// Exists reports whether userID has added friendID.
func (r *PostgresFriendRepository) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2
        )
    `, userID, friendID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("select friendship: %w", err)
	}

	return exists, nil
}

// PostgresGoalRepository provides PostgreSQL-backed persistence for goals.
type PostgresGoalRepository struct {
	pool db.Pool
}

// NewPostgresGoalRepository constructs a goal repository backed by PostgreSQL.
func NewPostgresGoalRepository(pool db.Pool) *PostgresGoalRepository {
	return &PostgresGoalRepository{pool: pool}
}

// Create persists a new goal record.
func (r *PostgresGoalRepository) Create(ctx context.Context, goal models.Goal) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO goals (id, owner_id, title, description, completion_key_id, hide, archived, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, goal.ID, goal.OwnerID, goal.Title, goal.Description, goal.CompletionKeyID, goal.Hide, goal.Archived, goal.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert goal: %w", err)
	}

	return nil
}

// FindByID fetches a goal by primary key.
func (r *PostgresGoalRepository) FindByID(ctx context.Context, id string) (models.Goal, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Goal{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, description, completion_key_id, hide, archived, created_at
        FROM goals
        WHERE id = $1
    `, id)

	var goal models.Goal
	if err := row.Scan(&goal.ID, &goal.OwnerID, &goal.Title, &goal.Description, &goal.CompletionKeyID, &goal.Hide, &goal.Archived, &goal.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, fmt.Errorf("select goal: %w", err)
	}

	return goal, nil
}

// ListByOwner returns all goals owned by the user, oldest first.
func (r *PostgresGoalRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Goal, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, title, description, completion_key_id, hide, archived, created_at
        FROM goals
        WHERE owner_id = $1
        ORDER BY created_at ASC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(&goal.ID, &goal.OwnerID, &goal.Title, &goal.Description, &goal.CompletionKeyID, &goal.Hide, &goal.Archived, &goal.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}

	return goals, nil
}

// Update modifies the goal's mutable fields.
func (r *PostgresGoalRepository) Update(ctx context.Context, goal models.Goal) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE goals
        SET title = $2, description = $3, hide = $4, archived = $5
        WHERE id = $1
    `, goal.ID, goal.Title, goal.Description, goal.Hide, goal.Archived)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresCommitmentRepository provides PostgreSQL-backed persistence for
// commitments. Terminal transitions are expressed as conditional updates so
// the pending check and the mutation are a single atomic statement.
type PostgresCommitmentRepository struct {
	pool db.Pool
}

// NewPostgresCommitmentRepository constructs a commitment repository backed by PostgreSQL.
func NewPostgresCommitmentRepository(pool db.Pool) *PostgresCommitmentRepository {
	return &PostgresCommitmentRepository{pool: pool}
}

// Create persists a new commitment record.
func (r *PostgresCommitmentRepository) Create(ctx context.Context, commitment models.Commitment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO commitments (id, goal_id, due, created_at, completed_at, cancelled_at, cancel_reason, comment)
        VALUES ($1, $2, $3, $4, NULL, NULL, NULL, NULL)
    `, commitment.ID, commitment.GoalID, commitment.Due, commitment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert commitment: %w", err)
	}

	return nil
}

// FindByID fetches a commitment by primary key.
func (r *PostgresCommitmentRepository) FindByID(ctx context.Context, id string) (models.Commitment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Commitment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, goal_id, due, created_at, completed_at, cancelled_at, cancel_reason, comment
        FROM commitments
        WHERE id = $1
    `, id)

	commitment, err := scanCommitment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Commitment{}, ErrNotFound
		}
		return models.Commitment{}, fmt.Errorf("select commitment: %w", err)
	}

	return commitment, nil
}

// ListByGoal returns the goal's commitments, oldest first.
func (r *PostgresCommitmentRepository) ListByGoal(ctx context.Context, goalID string) ([]models.Commitment, error) {
	return r.list(ctx, `
        SELECT id, goal_id, due, created_at, completed_at, cancelled_at, cancel_reason, comment
        FROM commitments
        WHERE goal_id = $1
        ORDER BY created_at ASC
    `, goalID)
}

// ListByOwner returns every commitment under any of the owner's goals.
func (r *PostgresCommitmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Commitment, error) {
	return r.list(ctx, `
        SELECT c.id, c.goal_id, c.due, c.created_at, c.completed_at, c.cancelled_at, c.cancel_reason, c.comment
        FROM commitments c
        JOIN goals g ON g.id = c.goal_id
        WHERE g.owner_id = $1
        ORDER BY c.created_at ASC
    `, ownerID)
}

func (r *PostgresCommitmentRepository) list(ctx context.Context, query, arg string) ([]models.Commitment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query commitments: %w", err)
	}
	defer rows.Close()

	var commitments []models.Commitment
	for rows.Next() {
		commitment, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		commitments = append(commitments, commitment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitments: %w", err)
	}

	return commitments, nil
}

// Complete marks the commitment completed iff it is still pending at nowMillis.
func (r *PostgresCommitmentRepository) Complete(ctx context.Context, id string, nowMillis int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE commitments
        SET completed_at = $2
        WHERE id = $1
          AND completed_at IS NULL
          AND cancelled_at IS NULL
          AND due >= $2
    `, id, nowMillis)
	if err != nil {
		return fmt.Errorf("complete commitment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, conn, id)
	}

	return nil
}

// CompleteAllPending completes every pending commitment under the goal.
func (r *PostgresCommitmentRepository) CompleteAllPending(ctx context.Context, goalID string, nowMillis int64) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE commitments
        SET completed_at = $2
        WHERE goal_id = $1
          AND completed_at IS NULL
          AND cancelled_at IS NULL
          AND due >= $2
    `, goalID, nowMillis)
	if err != nil {
		return 0, fmt.Errorf("complete pending commitments: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// Cancel records the cancellation iff the commitment is still pending at nowMillis.
func (r *PostgresCommitmentRepository) Cancel(ctx context.Context, id, reason string, nowMillis int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE commitments
        SET cancelled_at = $2, cancel_reason = $3
        WHERE id = $1
          AND completed_at IS NULL
          AND cancelled_at IS NULL
          AND due >= $2
    `, id, nowMillis, reason)
	if err != nil {
		return fmt.Errorf("cancel commitment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, conn, id)
	}

	return nil
}

// SetComment replaces the commitment's comment.
func (r *PostgresCommitmentRepository) SetComment(ctx context.Context, id, text string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE commitments
        SET comment = $2
        WHERE id = $1
    `, id, text)
	if err != nil {
		return fmt.Errorf("update commitment comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete hard-removes the commitment.
func (r *PostgresCommitmentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM commitments
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete commitment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type pgConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresCommitmentRepository) missingOrConflict(ctx context.Context, conn pgConn, id string) error {
	var exists bool
	row := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM commitments WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("check commitment existence: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func scanCommitment(row pgx.Row) (models.Commitment, error) {
	var (
		commitment   models.Commitment
		completedAt  sql.NullInt64
		cancelledAt  sql.NullInt64
		cancelReason sql.NullString
		comment      sql.NullString
	)

	if err := row.Scan(&commitment.ID, &commitment.GoalID, &commitment.Due, &commitment.CreatedAt, &completedAt, &cancelledAt, &cancelReason, &comment); err != nil {
		return models.Commitment{}, err
	}

	if completedAt.Valid {
		v := completedAt.Int64
		commitment.CompletedAt = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Int64
		commitment.CancelledAt = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		commitment.CancelReason = &v
	}
	if comment.Valid {
		v := comment.String
		commitment.Comment = &v
	}

	return commitment, nil
}

// PostgresKeyRepository provides PostgreSQL-backed persistence for completion keys.
type PostgresKeyRepository struct {
	pool db.Pool
}

// NewPostgresKeyRepository constructs a key repository backed by PostgreSQL.
func NewPostgresKeyRepository(pool db.Pool) *PostgresKeyRepository {
	return &PostgresKeyRepository{pool: pool}
}

// Create persists a new completion key.
func (r *PostgresKeyRepository) Create(ctx context.Context, key models.CompletionKey) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO completion_keys (id, creator_id, name, secret)
        VALUES ($1, $2, $3, $4)
    `, key.ID, key.CreatorID, key.Name, key.Secret)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert completion key: %w", err)
	}

	return nil
}

// FindByID fetches a completion key by primary key.
func (r *PostgresKeyRepository) FindByID(ctx context.Context, id string) (models.CompletionKey, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.CompletionKey{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, creator_id, name, secret
        FROM completion_keys
        WHERE id = $1
    `, id)

	var key models.CompletionKey
	if err := row.Scan(&key.ID, &key.CreatorID, &key.Name, &key.Secret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CompletionKey{}, ErrNotFound
		}
		return models.CompletionKey{}, fmt.Errorf("select completion key: %w", err)
	}

	return key, nil
}

// Rename updates the key's display name.
func (r *PostgresKeyRepository) Rename(ctx context.Context, id, name string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE completion_keys
        SET name = $2
        WHERE id = $1
    `, id, name)
	if err != nil {
		return fmt.Errorf("update completion key name: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AttachAndSweep points the goal at the key, then deletes unreferenced keys.
// Both steps run in one transaction: an in-flight key always has a
// referencing goal by the time the sweep considers it.
func (r *PostgresKeyRepository) AttachAndSweep(ctx context.Context, goalID, keyID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin key rotation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
        UPDATE goals
        SET completion_key_id = $2
        WHERE id = $1
    `, goalID, keyID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("attach completion key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
        DELETE FROM completion_keys
        WHERE id NOT IN (SELECT completion_key_id FROM goals)
    `); err != nil {
		return fmt.Errorf("sweep unreferenced keys: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit key rotation: %w", err)
	}

	return nil
}

// PostgresScoldRepository provides PostgreSQL-backed persistence for scolds.
type PostgresScoldRepository struct {
	pool db.Pool
}

// NewPostgresScoldRepository constructs a scold repository backed by PostgreSQL.
func NewPostgresScoldRepository(pool db.Pool) *PostgresScoldRepository {
	return &PostgresScoldRepository{pool: pool}
}

// Create persists a new scold. The (commitment, scolder) pair is unique.
func (r *PostgresScoldRepository) Create(ctx context.Context, scold models.Scold) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO scolds (id, commitment_id, scolder_id, owner_id, created_at, acknowledged)
        VALUES ($1, $2, $3, $4, $5, FALSE)
    `, scold.ID, scold.CommitmentID, scold.ScolderID, scold.OwnerID, scold.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert scold: %w", err)
	}

	return nil
}

// Exists reports whether scolderID has already scolded the commitment.
func (r *PostgresScoldRepository) Exists(ctx context.Context, commitmentID, scolderID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM scolds WHERE commitment_id = $1 AND scolder_id = $2
        )
    `, commitmentID, scolderID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("select scold: %w", err)
	}

	return exists, nil
}

// ListUnacknowledged returns the owner's unread scolds, newest first.
func (r *PostgresScoldRepository) ListUnacknowledged(ctx context.Context, ownerID string) ([]models.Scold, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, commitment_id, scolder_id, owner_id, created_at, acknowledged
        FROM scolds
        WHERE owner_id = $1 AND acknowledged = FALSE
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query scolds: %w", err)
	}
	defer rows.Close()

	var scolds []models.Scold
	for rows.Next() {
		var scold models.Scold
		if err := rows.Scan(&scold.ID, &scold.CommitmentID, &scold.ScolderID, &scold.OwnerID, &scold.CreatedAt, &scold.Acknowledged); err != nil {
			return nil, fmt.Errorf("scan scold: %w", err)
		}
		scolds = append(scolds, scold)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scolds: %w", err)
	}

	return scolds, nil
}

// Acknowledge marks the owner's scold as read.
func (r *PostgresScoldRepository) Acknowledge(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE scolds
        SET acknowledged = TRUE
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("acknowledge scold: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendRepository = (*PostgresFriendRepository)(nil)
var _ GoalRepository = (*PostgresGoalRepository)(nil)
var _ CommitmentRepository = (*PostgresCommitmentRepository)(nil)
var _ KeyRepository = (*PostgresKeyRepository)(nil)
var _ ScoldRepository = (*PostgresScoldRepository)(nil)

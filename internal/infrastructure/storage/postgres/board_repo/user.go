// Package board_repo provides PostgreSQL implementations for the board
// repositories and the cascade store.
package board_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/user"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
)

const pgUniqueViolation = "23505"

// UserRepo implements user.Repository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("user", "email", u.Email).WithCause(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id, tombstoned or not. Cascade resolution
// needs to see deleted users, so no deleted_at predicate here.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*user.User, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT id, username, email, password_hash, role, refresh_token_hash,
		       deleted_at, created_at
		FROM users
		WHERE id = $1
	`

	var u user.User
	err := q.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.RefreshTokenHash, &u.DeletedAt, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves an active user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT id, username, email, password_hash, role, refresh_token_hash,
		       deleted_at, created_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`

	var u user.User
	err := q.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.RefreshTokenHash, &u.DeletedAt, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &u, nil
}

// ExistsByEmail checks whether an active user with the email exists.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := q.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

// UpdateRole changes the user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, userID id.ID, role user.Role) error {
	q := r.txManager.GetQuerier(ctx)

	query := `UPDATE users SET role = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := q.Exec(ctx, query, userID, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// SetRefreshTokenHash stores or clears the hashed refresh token.
func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, userID id.ID, hash *string) error {
	q := r.txManager.GetQuerier(ctx)

	query := `UPDATE users SET refresh_token_hash = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := q.Exec(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("set refresh token hash: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// Ensure interface compliance
var _ user.Repository = (*UserRepo)(nil)

package user

import (
	"context"

	"github.com/enxxi/v-board/internal/core/id"
)

// Repository defines persistence for users.
type Repository interface {
	// Create inserts a new user. Duplicate emails among active users fail
	// with a duplicate-entry error.
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by id, tombstoned or not.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves an active user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks whether an active user with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateRole changes the user's role.
	UpdateRole(ctx context.Context, userID id.ID, role Role) error

	// SetRefreshTokenHash stores (or clears, with nil) the hashed refresh token.
	SetRefreshTokenHash(ctx context.Context, userID id.ID, hash *string) error
}

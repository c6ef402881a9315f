// Package user provides the board member domain: registration data,
// roles, and the account lifecycle up to cascading deletion.
package user

import (
	"context"
	"regexp"
	"time"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/entity"
)

// Role defines the access level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User represents a registered board member.
type User struct {
	entity.Base

	Username string `db:"username" json:"username"`

	// Email is unique among active users
	Email string `db:"email" json:"email"`

	// PasswordHash is the bcrypt hash, never serialized
	PasswordHash string `db:"password_hash" json:"-"`

	Role Role `db:"role" json:"role"`

	// RefreshTokenHash stores the SHA256 hash of the current refresh token,
	// nil when the user is logged out
	RefreshTokenHash *string `db:"refresh_token_hash" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// New creates a User with defaults.
func New(username, email, passwordHash string) *User {
	return &User{
		Base:         entity.NewBase(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").
			WithDetail("field", "username")
	}
	if !emailPattern.MatchString(u.Email) {
		return apperror.NewValidation("invalid email address").
			WithDetail("field", "email")
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password is required").
			WithDetail("field", "password")
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", string(u.Role))
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Package entity provides the shared base types for board entities.
package entity

import (
	"context"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Base contains the fields every row carries.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// DeletedAt is the tombstone timestamp. A nil value means the row is
	// active; once set it is never cleared or moved.
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// NewBase creates a Base with a generated ID.
func NewBase() Base {
	return Base{ID: id.New()}
}

// IsDeleted reports whether the entity is tombstoned.
func (b *Base) IsDeleted() bool {
	return b.DeletedAt != nil
}

// Tombstone marks the entity deleted at the given time. Setting a tombstone
// on an already tombstoned entity is a no-op: the timestamp is monotone.
func (b *Base) Tombstone(at time.Time) {
	if b.DeletedAt != nil {
		return
	}
	t := at.UTC()
	b.DeletedAt = &t
}

// Audited extends Base with creation and modification timestamps and an
// optimistic-locking version.
type Audited struct {
	Base

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Version is incremented on every update
	Version int `db:"version" json:"version"`
}

// NewAudited creates an Audited base with generated ID and timestamps.
func NewAudited() Audited {
	now := time.Now().UTC()
	return Audited{
		Base:      NewBase(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch updates the modification timestamp and bumps the version.
func (a *Audited) Touch() {
	a.UpdatedAt = time.Now().UTC()
	a.Version++
}

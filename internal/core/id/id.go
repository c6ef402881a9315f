// Package id provides UUIDv7 identifiers for all board entities.
// Time-ordered UUIDs keep B-tree inserts local and make ids sortable
// by creation time without an extra index.
package id

import "github.com/google/uuid"

// ID is the identifier type shared by every entity.
type ID = uuid.UUID

// New generates a UUIDv7.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to v4.
		return uuid.New()
	}
	return v7
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string to an ID, panicking on error.
// Intended for tests and fixtures only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero-value ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether the ID is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

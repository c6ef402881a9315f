// Package category provides the fixed board sections posts are filed under.
package category

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
)

// Name is one of the fixed board sections.
type Name string

const (
	Notice  Name = "notice"
	QnA     Name = "qna"
	Inquiry Name = "inquiry"
)

// All lists every valid category name, in display order.
func All() []Name {
	return []Name{Notice, QnA, Inquiry}
}

// Category is a board section referenced by posts. Categories are seeded
// once and never deleted.
type Category struct {
	ID   id.ID `db:"id" json:"id"`
	Name Name  `db:"name" json:"name"`
}

// New creates a Category with a generated id.
func New(name Name) *Category {
	return &Category{ID: id.New(), Name: name}
}

// Validate implements entity.Validatable.
func (c *Category) Validate(ctx context.Context) error {
	switch c.Name {
	case Notice, QnA, Inquiry:
		return nil
	}
	return apperror.NewValidation("invalid category name").
		WithDetail("field", "name").
		WithDetail("value", string(c.Name))
}

// Repository defines persistence for categories.
type Repository interface {
	Insert(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, categoryID id.ID) (*Category, error)
	GetByName(ctx context.Context, name Name) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
}

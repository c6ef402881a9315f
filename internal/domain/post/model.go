// Package post provides the board post domain.
package post

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/entity"
	"github.com/enxxi/v-board/internal/core/id"
)

const maxTitleLength = 200

// Post is a board entry filed under a category. It owns its comments and
// attachments: tombstoning a post tombstones both.
type Post struct {
	entity.Audited

	Title   string `db:"title" json:"title"`
	Content string `db:"content" json:"content"`

	// ViewCount is incremented on every detail read
	ViewCount int64 `db:"view_count" json:"viewCount"`

	CategoryID id.ID `db:"category_id" json:"categoryId"`
	AuthorID   id.ID `db:"author_id" json:"authorId"`
}

// New creates a Post with generated id and timestamps.
func New(title, content string, categoryID, authorID id.ID) *Post {
	return &Post{
		Audited:    entity.NewAudited(),
		Title:      title,
		Content:    content,
		CategoryID: categoryID,
		AuthorID:   authorID,
	}
}

// Validate implements entity.Validatable.
func (p *Post) Validate(ctx context.Context) error {
	if p.Title == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}
	if len(p.Title) > maxTitleLength {
		return apperror.NewValidation("title is too long").
			WithDetail("field", "title").
			WithDetail("max", maxTitleLength)
	}
	if p.Content == "" {
		return apperror.NewValidation("content is required").
			WithDetail("field", "content")
	}
	if id.IsNil(p.CategoryID) {
		return apperror.NewValidation("category is required").
			WithDetail("field", "categoryId")
	}
	if id.IsNil(p.AuthorID) {
		return apperror.NewValidation("author is required").
			WithDetail("field", "authorId")
	}
	return nil
}

// IsOwnedBy reports whether the post was authored by the given user.
func (p *Post) IsOwnedBy(userID id.ID) bool {
	return p.AuthorID == userID
}

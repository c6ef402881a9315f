package comment

import (
	"context"

	"github.com/enxxi/v-board/internal/core/id"
)

// Thread is a root comment with its direct replies, as returned by post
// detail pages.
type Thread struct {
	Comment
	AuthorName string    `db:"author_name" json:"authorName"`
	Replies    []*Thread `db:"-" json:"replies,omitempty"`
}

// Repository defines persistence for comments.
type Repository interface {
	Create(ctx context.Context, c *Comment) error

	// GetByID retrieves an active comment by id.
	GetByID(ctx context.Context, commentID id.ID) (*Comment, error)

	// Update writes the content with optimistic locking on version.
	Update(ctx context.Context, c *Comment) error

	// ListByPost retrieves the active comment forest of a post: roots in
	// creation order, each with its reply subtree attached.
	ListByPost(ctx context.Context, postID id.ID) ([]*Thread, error)
}

// Package comment provides the threaded comment domain. Comments form a
// forest per post: roots at depth 0, replies one level below their parent.
package comment

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/entity"
	"github.com/enxxi/v-board/internal/core/id"
)

// Comment is a single entry in a post's comment tree.
type Comment struct {
	entity.Audited

	Content string `db:"content" json:"content"`

	// Depth is 0 for root comments and parent depth + 1 for replies
	Depth int `db:"depth" json:"depth"`

	PostID   id.ID `db:"post_id" json:"postId"`
	AuthorID id.ID `db:"author_id" json:"authorId"`

	// ParentID is nil for root comments. A reply always belongs to the
	// same post as its parent; the post reference is immutable.
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`
}

// NewRoot creates a depth-0 comment on a post.
func NewRoot(content string, postID, authorID id.ID) *Comment {
	return &Comment{
		Audited:  entity.NewAudited(),
		Content:  content,
		PostID:   postID,
		AuthorID: authorID,
	}
}

// NewReply creates a child comment one level below parent.
func NewReply(content string, parent *Comment, authorID id.ID) *Comment {
	pid := parent.ID
	return &Comment{
		Audited:  entity.NewAudited(),
		Content:  content,
		Depth:    parent.Depth + 1,
		PostID:   parent.PostID,
		AuthorID: authorID,
		ParentID: &pid,
	}
}

// Validate implements entity.Validatable.
func (c *Comment) Validate(ctx context.Context) error {
	if c.Content == "" {
		return apperror.NewValidation("content is required").
			WithDetail("field", "content")
	}
	if id.IsNil(c.PostID) {
		return apperror.NewValidation("post is required").
			WithDetail("field", "postId")
	}
	if id.IsNil(c.AuthorID) {
		return apperror.NewValidation("author is required").
			WithDetail("field", "authorId")
	}
	if c.ParentID == nil && c.Depth != 0 {
		return apperror.NewValidation("root comments must have depth 0").
			WithDetail("field", "depth")
	}
	if c.ParentID != nil && c.Depth < 1 {
		return apperror.NewValidation("replies must have depth of at least 1").
			WithDetail("field", "depth")
	}
	return nil
}

// IsOwnedBy reports whether the comment was authored by the given user.
func (c *Comment) IsOwnedBy(userID id.ID) bool {
	return c.AuthorID == userID
}

package dto

import (
	"time"

	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/internal/domain/comment"
)

// CreateCommentRequest for new comments and replies.
type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parentId" binding:"omitempty,uuid"`
}

// UpdateCommentRequest for editing comment content.
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CommentResponse represents one comment with its replies.
type CommentResponse struct {
	ID         string             `json:"id"`
	Content    string             `json:"content"`
	Depth      int                `json:"depth"`
	AuthorID   string             `json:"authorId"`
	AuthorName string             `json:"authorName"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Replies    []*CommentResponse `json:"replies,omitempty"`
}

// FromThread creates a response from a comment subtree.
func FromThread(t *comment.Thread) *CommentResponse {
	replies := make([]*CommentResponse, 0, len(t.Replies))
	for _, reply := range t.Replies {
		replies = append(replies, FromThread(reply))
	}

	return &CommentResponse{
		ID:         t.ID.String(),
		Content:    t.Content,
		Depth:      t.Depth,
		AuthorID:   t.AuthorID.String(),
		AuthorName: t.AuthorName,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		Replies:    replies,
	}
}

// FromThreads converts a comment forest.
func FromThreads(threads []*comment.Thread) []*CommentResponse {
	out := make([]*CommentResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, FromThread(t))
	}
	return out
}

// CategoryResponse represents a board section.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FromCategory creates a category response.
func FromCategory(c *category.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:   c.ID.String(),
		Name: string(c.Name),
	}
}

package board_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/comment"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
)

// CommentRepo implements comment.Repository.
type CommentRepo struct {
	txManager *postgres.TxManager
}

// NewCommentRepo creates a new comment repository.
func NewCommentRepo(txManager *postgres.TxManager) *CommentRepo {
	return &CommentRepo{txManager: txManager}
}

// Create inserts a new comment.
func (r *CommentRepo) Create(ctx context.Context, c *comment.Comment) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO comments (id, content, depth, post_id, author_id, parent_id,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		c.ID, c.Content, c.Depth, c.PostID, c.AuthorID, c.ParentID,
		c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// GetByID retrieves an active comment by id.
func (r *CommentRepo) GetByID(ctx context.Context, commentID id.ID) (*comment.Comment, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT id, content, depth, post_id, author_id, parent_id,
		       deleted_at, created_at, updated_at, version
		FROM comments
		WHERE id = $1 AND deleted_at IS NULL
	`

	var c comment.Comment
	err := q.QueryRow(ctx, query, commentID).Scan(
		&c.ID, &c.Content, &c.Depth, &c.PostID, &c.AuthorID, &c.ParentID,
		&c.DeletedAt, &c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("comment", commentID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query comment: %w", err)
	}

	return &c, nil
}

// Update writes the content with optimistic locking on version.
func (r *CommentRepo) Update(ctx context.Context, c *comment.Comment) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE comments SET
			content = $2,
			updated_at = $3,
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL AND version = $4
	`

	result, err := q.Exec(ctx, query, c.ID, c.Content, c.UpdatedAt, c.Version)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConflict("comment was modified concurrently").
			WithDetail("id", c.ID.String())
	}

	c.Version++
	return nil
}

// ListByPost retrieves the active comment forest of a post. One query
// fetches every depth; the tree is assembled in memory by parent id.
func (r *CommentRepo) ListByPost(ctx context.Context, postID id.ID) ([]*comment.Thread, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT c.id, c.content, c.depth, c.post_id, c.author_id, c.parent_id,
		       c.deleted_at, c.created_at, c.updated_at, c.version,
		       u.username AS author_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC
	`

	var flat []*comment.Thread
	if err := pgxscan.Select(ctx, q, &flat, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return assembleThreads(flat), nil
}

// assembleThreads links a creation-ordered flat list into a forest. A row
// whose parent is missing from the set is treated as a root; that only
// happens if a cascade tombstoned the parent between queries.
func assembleThreads(flat []*comment.Thread) []*comment.Thread {
	byID := make(map[id.ID]*comment.Thread, len(flat))
	for _, t := range flat {
		byID[t.ID] = t
	}

	roots := make([]*comment.Thread, 0, len(flat))
	for _, t := range flat {
		if t.ParentID != nil {
			if parent, ok := byID[*t.ParentID]; ok {
				parent.Replies = append(parent.Replies, t)
				continue
			}
		}
		roots = append(roots, t)
	}

	return roots
}

// Ensure interface compliance
var _ comment.Repository = (*CommentRepo)(nil)

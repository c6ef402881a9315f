package board_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/attachment"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
)

// AttachmentRepo implements attachment.Repository.
type AttachmentRepo struct {
	txManager *postgres.TxManager
}

// NewAttachmentRepo creates a new attachment repository.
func NewAttachmentRepo(txManager *postgres.TxManager) *AttachmentRepo {
	return &AttachmentRepo{txManager: txManager}
}

// CreateBatch inserts attachment metadata rows in one statement.
func (r *AttachmentRepo) CreateBatch(ctx context.Context, attachments []*attachment.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("attachments").
		Columns("id", "url", "post_id")

	for _, a := range attachments {
		q = q.Values(a.ID, a.URL, a.PostID)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert attachments: %w", err)
	}

	return nil
}

// ListByPost retrieves active attachments of a post.
func (r *AttachmentRepo) ListByPost(ctx context.Context, postID id.ID) ([]*attachment.Attachment, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT id, url, post_id, deleted_at
		FROM attachments
		WHERE post_id = $1 AND deleted_at IS NULL
		ORDER BY url
	`

	var attachments []*attachment.Attachment
	if err := pgxscan.Select(ctx, q, &attachments, query, postID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	return attachments, nil
}

// TombstoneByPost marks all active attachments of a post deleted. Used
// when a post edit replaces its attachment set.
func (r *AttachmentRepo) TombstoneByPost(ctx context.Context, postID id.ID) error {
	q := r.txManager.GetQuerier(ctx)

	query := `UPDATE attachments SET deleted_at = now() WHERE post_id = $1 AND deleted_at IS NULL`
	if _, err := q.Exec(ctx, query, postID); err != nil {
		return fmt.Errorf("tombstone attachments: %w", err)
	}

	return nil
}

// Ensure interface compliance
var _ attachment.Repository = (*AttachmentRepo)(nil)

package board_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/cascade"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
)

// CascadeStore implements cascade.Store over the board tables. Reads serve
// resolution and see rows regardless of tombstone state where the contract
// says so; writes only touch rows still active, so concurrent cascades
// skip instead of overwriting each other's timestamps.
type CascadeStore struct {
	txManager *postgres.TxManager
}

// NewCascadeStore creates the cascade persistence adapter.
func NewCascadeStore(txManager *postgres.TxManager) *CascadeStore {
	return &CascadeStore{txManager: txManager}
}

func (s *CascadeStore) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// UserState reports existence and tombstone state of a user.
func (s *CascadeStore) UserState(ctx context.Context, userID id.ID) (cascade.RootState, error) {
	return s.rootState(ctx, "users", userID)
}

// PostState reports existence and tombstone state of a post.
func (s *CascadeStore) PostState(ctx context.Context, postID id.ID) (cascade.RootState, error) {
	return s.rootState(ctx, "posts", postID)
}

func (s *CascadeStore) rootState(ctx context.Context, table string, entityID id.ID) (cascade.RootState, error) {
	q := s.txManager.GetQuerier(ctx)

	var deletedAt *time.Time
	query := fmt.Sprintf(`SELECT deleted_at FROM %s WHERE id = $1`, table)
	err := q.QueryRow(ctx, query, entityID).Scan(&deletedAt)
	if err == pgx.ErrNoRows {
		return cascade.RootState{}, nil
	}
	if err != nil {
		return cascade.RootState{}, fmt.Errorf("query %s state: %w", table, err)
	}

	return cascade.RootState{Found: true, DeletedAt: deletedAt}, nil
}

// CommentRefByID reports a comment's state plus its depth for ordering.
func (s *CascadeStore) CommentRefByID(ctx context.Context, commentID id.ID) (cascade.RootState, cascade.CommentRef, error) {
	q := s.txManager.GetQuerier(ctx)

	var (
		deletedAt *time.Time
		depth     int
	)
	err := q.QueryRow(ctx, `SELECT deleted_at, depth FROM comments WHERE id = $1`, commentID).
		Scan(&deletedAt, &depth)
	if err == pgx.ErrNoRows {
		return cascade.RootState{}, cascade.CommentRef{}, nil
	}
	if err != nil {
		return cascade.RootState{}, cascade.CommentRef{}, fmt.Errorf("query comment state: %w", err)
	}

	state := cascade.RootState{Found: true, DeletedAt: deletedAt}
	return state, cascade.CommentRef{ID: commentID, Depth: depth}, nil
}

// ChildComments returns the direct, active children of every parent in one
// round trip.
func (s *CascadeStore) ChildComments(ctx context.Context, parentIDs []id.ID) ([]cascade.CommentRef, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	q := s.builder().
		Select("id", "depth").
		From("comments").
		Where(squirrel.Eq{"parent_id": parentIDs}).
		Where("deleted_at IS NULL")

	return s.selectRefs(ctx, q, "child comments")
}

// PostIDsByAuthor lists active posts authored by the user.
func (s *CascadeStore) PostIDsByAuthor(ctx context.Context, userID id.ID) ([]id.ID, error) {
	q := s.txManager.GetQuerier(ctx)

	var ids []id.ID
	query := `SELECT id FROM posts WHERE author_id = $1 AND deleted_at IS NULL`
	if err := pgxscan.Select(ctx, q, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("query posts by author: %w", err)
	}

	return ids, nil
}

// CommentsByAuthor lists active comments authored by the user.
func (s *CascadeStore) CommentsByAuthor(ctx context.Context, userID id.ID) ([]cascade.CommentRef, error) {
	q := s.builder().
		Select("id", "depth").
		From("comments").
		Where(squirrel.Eq{"author_id": userID}).
		Where("deleted_at IS NULL")

	return s.selectRefs(ctx, q, "comments by author")
}

// CommentsByPost lists every active comment of a post, at all depths.
// Every comment row carries post_id, so no frontier walk is needed here.
func (s *CascadeStore) CommentsByPost(ctx context.Context, postID id.ID) ([]cascade.CommentRef, error) {
	q := s.builder().
		Select("id", "depth").
		From("comments").
		Where(squirrel.Eq{"post_id": postID}).
		Where("deleted_at IS NULL")

	return s.selectRefs(ctx, q, "comments by post")
}

// AttachmentsByPosts lists active attachments across the given posts.
func (s *CascadeStore) AttachmentsByPosts(ctx context.Context, postIDs []id.ID) ([]cascade.AttachmentRef, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	q := s.builder().
		Select("id", "url").
		From("attachments").
		Where(squirrel.Eq{"post_id": postIDs}).
		Where("deleted_at IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := s.txManager.GetQuerier(ctx)
	var refs []cascade.AttachmentRef
	if err := pgxscan.Select(ctx, querier, &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("query attachments by posts: %w", err)
	}

	return refs, nil
}

func (s *CascadeStore) selectRefs(ctx context.Context, q squirrel.SelectBuilder, op string) ([]cascade.CommentRef, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := s.txManager.GetQuerier(ctx)
	var refs []cascade.CommentRef
	if err := pgxscan.Select(ctx, querier, &refs, sql, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}

	return refs, nil
}

// TombstoneUsers marks the users deleted at the given timestamp.
func (s *CascadeStore) TombstoneUsers(ctx context.Context, ids []id.ID, at time.Time) (int64, error) {
	return s.tombstone(ctx, "users", ids, at)
}

// TombstonePosts marks the posts deleted at the given timestamp.
func (s *CascadeStore) TombstonePosts(ctx context.Context, ids []id.ID, at time.Time) (int64, error) {
	return s.tombstone(ctx, "posts", ids, at)
}

// TombstoneComments marks the comments deleted at the given timestamp.
func (s *CascadeStore) TombstoneComments(ctx context.Context, ids []id.ID, at time.Time) (int64, error) {
	return s.tombstone(ctx, "comments", ids, at)
}

// TombstoneAttachments marks the attachments deleted at the given timestamp.
func (s *CascadeStore) TombstoneAttachments(ctx context.Context, ids []id.ID, at time.Time) (int64, error) {
	return s.tombstone(ctx, "attachments", ids, at)
}

// tombstone sets deleted_at on active rows only. Rows already tombstoned
// keep their original timestamp.
func (s *CascadeStore) tombstone(ctx context.Context, table string, ids []id.ID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := s.builder().
		Update(table).
		Set("deleted_at", at).
		Where(squirrel.Eq{"id": ids}).
		Where("deleted_at IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build tombstone: %w", err)
	}

	querier := s.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("tombstone %s: %w", table, err)
	}

	return result.RowsAffected(), nil
}

// Ensure interface compliance
var _ cascade.Store = (*CascadeStore)(nil)

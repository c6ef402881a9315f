package board_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
)

// PostRepo implements post.Repository.
type PostRepo struct {
	txManager *postgres.TxManager
}

// NewPostRepo creates a new post repository.
func NewPostRepo(txManager *postgres.TxManager) *PostRepo {
	return &PostRepo{txManager: txManager}
}

func (r *PostRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new post.
func (r *PostRepo) Create(ctx context.Context, p *post.Post) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO posts (id, title, content, view_count, category_id, author_id,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		p.ID, p.Title, p.Content, p.ViewCount, p.CategoryID, p.AuthorID,
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetByID retrieves an active post by id.
func (r *PostRepo) GetByID(ctx context.Context, postID id.ID) (*post.Post, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT id, title, content, view_count, category_id, author_id,
		       deleted_at, created_at, updated_at, version
		FROM posts
		WHERE id = $1 AND deleted_at IS NULL
	`

	var p post.Post
	err := q.QueryRow(ctx, query, postID).Scan(
		&p.ID, &p.Title, &p.Content, &p.ViewCount, &p.CategoryID, &p.AuthorID,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("post", postID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query post: %w", err)
	}

	return &p, nil
}

// GetDetail retrieves an active post joined with author and category names.
func (r *PostRepo) GetDetail(ctx context.Context, postID id.ID) (*post.ListItem, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT p.id, p.title, p.content, p.view_count, p.category_id, p.author_id,
		       p.deleted_at, p.created_at, p.updated_at, p.version,
		       u.username AS author_name, c.name AS category_name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.deleted_at IS NULL
	`

	var item post.ListItem
	if err := pgxscan.Get(ctx, q, &item, query, postID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("post", postID.String())
		}
		return nil, fmt.Errorf("query post detail: %w", err)
	}

	return &item, nil
}

// Update writes mutable fields with optimistic locking on version.
func (r *PostRepo) Update(ctx context.Context, p *post.Post) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE posts SET
			title = $2,
			content = $3,
			category_id = $4,
			updated_at = $5,
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL AND version = $6
	`

	result, err := q.Exec(ctx, query,
		p.ID, p.Title, p.Content, p.CategoryID, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConflict("post was modified concurrently").
			WithDetail("id", p.ID.String())
	}

	p.Version++
	return nil
}

// IncrementViews adds delta to the post's view counter. Deltas arrive in
// batches from the view counter flush, so delta can exceed 1.
func (r *PostRepo) IncrementViews(ctx context.Context, postID id.ID, delta int64) error {
	q := r.txManager.GetQuerier(ctx)

	query := `UPDATE posts SET view_count = view_count + $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := q.Exec(ctx, query, postID, delta); err != nil {
		return fmt.Errorf("increment post views: %w", err)
	}

	return nil
}

// List retrieves active posts with search, sorting and pagination.
func (r *PostRepo) List(ctx context.Context, filter post.ListFilter) (post.ListResult, error) {
	result := post.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(
			"p.id", "p.title", "p.content", "p.view_count",
			"p.category_id", "p.author_id",
			"p.deleted_at", "p.created_at", "p.updated_at", "p.version",
			"u.username AS author_name", "c.name AS category_name",
		).
		From("posts p").
		Join("users u ON u.id = p.author_id").
		Join("categories c ON c.id = p.category_id").
		Where("p.deleted_at IS NULL")

	q = applyListFilter(q, filter)

	// Count before pagination.
	countQ := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count posts: %w", err)
	}

	switch filter.SortBy {
	case post.SortViews:
		q = q.OrderBy("p.view_count DESC", "p.created_at DESC")
	default:
		q = q.OrderBy("p.created_at DESC")
	}

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build list query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list posts: %w", err)
	}

	return result, nil
}

func applyListFilter(q squirrel.SelectBuilder, filter post.ListFilter) squirrel.SelectBuilder {
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		switch filter.Type {
		case post.SearchTitle:
			q = q.Where(squirrel.ILike{"p.title": pattern})
		case post.SearchAuthor:
			q = q.Where(squirrel.ILike{"u.username": pattern})
		default:
			q = q.Where(squirrel.Or{
				squirrel.ILike{"p.title": pattern},
				squirrel.ILike{"u.username": pattern},
			})
		}
	}

	if filter.CreatedAfter != nil {
		q = q.Where(squirrel.GtOrEq{"p.created_at": *filter.CreatedAfter})
	}

	return q
}

// Ensure interface compliance
var _ post.Repository = (*PostRepo)(nil)

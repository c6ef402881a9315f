package board_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
)

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	txManager *postgres.TxManager
}

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{txManager: txManager}
}

// Insert creates a category. Names are unique; seeding relies on the
// duplicate error to stay idempotent.
func (r *CategoryRepo) Insert(ctx context.Context, c *category.Category) error {
	q := r.txManager.GetQuerier(ctx)

	_, err := q.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID, c.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("category", "name", string(c.Name)).WithCause(err)
		}
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

// GetByID retrieves a category by id.
func (r *CategoryRepo) GetByID(ctx context.Context, categoryID id.ID) (*category.Category, error) {
	q := r.txManager.GetQuerier(ctx)

	var c category.Category
	err := pgxscan.Get(ctx, q, &c, `SELECT id, name FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("category", categoryID.String())
		}
		return nil, fmt.Errorf("query category: %w", err)
	}

	return &c, nil
}

// GetByName retrieves a category by name.
func (r *CategoryRepo) GetByName(ctx context.Context, name category.Name) (*category.Category, error) {
	q := r.txManager.GetQuerier(ctx)

	var c category.Category
	err := pgxscan.Get(ctx, q, &c, `SELECT id, name FROM categories WHERE name = $1`, name)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("category", string(name))
		}
		return nil, fmt.Errorf("query category: %w", err)
	}

	return &c, nil
}

// List retrieves all categories in display order.
func (r *CategoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	q := r.txManager.GetQuerier(ctx)

	var categories []*category.Category
	query := `
		SELECT id, name FROM categories
		ORDER BY CASE name WHEN 'notice' THEN 0 WHEN 'qna' THEN 1 ELSE 2 END
	`
	if err := pgxscan.Select(ctx, q, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

// Ensure interface compliance
var _ category.Repository = (*CategoryRepo)(nil)

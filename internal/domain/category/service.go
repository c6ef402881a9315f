package category

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/tx"
	"github.com/enxxi/v-board/pkg/logger"
)

// Service provides category lookups and idempotent seeding. The set of
// categories is fixed; there is no create or delete beyond the seed.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a category service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// List retrieves all categories.
func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

// GetByName retrieves a category by its fixed name.
func (s *Service) GetByName(ctx context.Context, name Name) (*Category, error) {
	return s.repo.GetByName(ctx, name)
}

// Seed inserts any missing fixed categories. Safe to run repeatedly.
func (s *Service) Seed(ctx context.Context) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, name := range All() {
			err := s.repo.Insert(ctx, New(name))
			if err == nil {
				logger.Info(ctx, "category seeded", "name", name)
				continue
			}
			if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
				continue
			}
			return err
		}
		return nil
	})
}

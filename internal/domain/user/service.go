package user

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/appctx"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/cascade"
	"github.com/enxxi/v-board/pkg/logger"
)

// Service provides user profile operations and account deletion. Deleting
// an account tombstones the user together with everything it owns: posts,
// comments under those posts, replies, attachments, and the user's own
// comments elsewhere.
type Service struct {
	repo   Repository
	engine *cascade.Engine
}

// NewService creates a user service.
func NewService(repo Repository, engine *cascade.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// Get retrieves an active user by id.
func (s *Service) Get(ctx context.Context, userID id.ID) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

// Delete tombstones the account and its entire content closure. Only the
// account owner or an admin may delete. Deleting an already-deleted
// account is an idempotent no-op.
func (s *Service) Delete(ctx context.Context, userID id.ID) (*cascade.Result, error) {
	if err := s.authorizeDelete(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.engine.Delete(ctx, userID, cascade.KindUser)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyDeleted {
		logger.Info(ctx, "user account deleted",
			"user_id", userID,
			"affected", result.Affected)
	}

	return result, nil
}

func (s *Service) authorizeDelete(ctx context.Context, userID id.ID) error {
	if appctx.IsAdmin(ctx) {
		return nil
	}
	if appctx.GetUserID(ctx) == userID.String() {
		return nil
	}
	return apperror.NewForbidden("cannot delete another user's account")
}

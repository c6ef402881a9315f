package comment

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/appctx"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/core/tx"
	"github.com/enxxi/v-board/internal/domain/cascade"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/pkg/logger"
)

// Service provides comment operations. Deleting a comment tombstones its
// whole reply subtree.
type Service struct {
	repo      Repository
	postRepo  post.Repository
	txManager tx.Manager
	engine    *cascade.Engine
}

// NewService creates a comment service.
func NewService(repo Repository, postRepo post.Repository, txManager tx.Manager, engine *cascade.Engine) *Service {
	return &Service{
		repo:      repo,
		postRepo:  postRepo,
		txManager: txManager,
		engine:    engine,
	}
}

// Create adds a comment on a post, or a reply when parentID is given. A
// reply must target an active parent on the same post; its depth is the
// parent's plus one.
func (s *Service) Create(ctx context.Context, postID id.ID, parentID *id.ID, content string) (*Comment, error) {
	authorID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	// The post must exist and be active.
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	var c *Comment
	if parentID == nil {
		c = NewRoot(content, postID, authorID)
	} else {
		parent, err := s.repo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperror.NewValidation("parent comment belongs to another post").
				WithDetail("parentId", parentID.String())
		}
		c = NewReply(content, parent, authorID)
	}

	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "comment created",
		"comment_id", c.ID,
		"post_id", postID,
		"depth", c.Depth)

	return c, nil
}

// ListByPost retrieves the active comment forest of a post.
func (s *Service) ListByPost(ctx context.Context, postID id.ID) ([]*Thread, error) {
	return s.repo.ListByPost(ctx, postID)
}

// Update edits the comment content. Only the author may edit.
func (s *Service) Update(ctx context.Context, commentID id.ID, content string) (*Comment, error) {
	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	authorID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(authorID) {
		return nil, apperror.NewForbidden("not the comment author")
	}

	c.Content = content
	c.Touch()
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Delete tombstones the comment and every reply below it. Only the author
// or an admin may delete. Repeat deletion is an idempotent no-op.
func (s *Service) Delete(ctx context.Context, commentID id.ID) (*cascade.Result, error) {
	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Possibly tombstoned already; the engine reports idempotent
			// success in that case.
			return s.engine.Delete(ctx, commentID, cascade.KindComment)
		}
		return nil, err
	}

	if !appctx.IsAdmin(ctx) {
		authorID, err := s.currentUserID(ctx)
		if err != nil {
			return nil, err
		}
		if !c.IsOwnedBy(authorID) {
			return nil, apperror.NewForbidden("not the comment author")
		}
	}

	return s.engine.Delete(ctx, commentID, cascade.KindComment)
}

func (s *Service) currentUserID(ctx context.Context) (id.ID, error) {
	raw := appctx.GetUserID(ctx)
	if raw == "" {
		return id.Nil(), apperror.NewUnauthorized("authentication required")
	}
	userID, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewUnauthorized("invalid user identity")
	}
	return userID, nil
}

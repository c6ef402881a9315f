package post

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/appctx"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/core/tx"
	"github.com/enxxi/v-board/internal/domain/attachment"
	"github.com/enxxi/v-board/internal/domain/cascade"
	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/pkg/logger"
)

// Upload is one file submitted with a post.
type Upload struct {
	Filename string
	Content  []byte
}

// Detail is a post with its attachments, as served by the detail page.
type Detail struct {
	ListItem
	Attachments []*attachment.Attachment `json:"attachments"`
}

// Cache caches post detail reads. All methods are best-effort; a failing
// cache never fails the request.
type Cache interface {
	GetDetail(ctx context.Context, postID id.ID) (*Detail, bool)
	SetDetail(ctx context.Context, detail *Detail)
	InvalidateDetail(ctx context.Context, postID id.ID)
}

// ViewCounter accumulates view hits outside the store for periodic
// flushing. Increment returns false when the counter is unavailable and
// the view must be written straight through.
type ViewCounter interface {
	Increment(ctx context.Context, postID id.ID) (bool, error)
}

// Service provides post operations.
type Service struct {
	repo           Repository
	categoryRepo   category.Repository
	attachmentRepo attachment.Repository
	blobs          attachment.BlobStore
	txManager      tx.Manager
	engine         *cascade.Engine

	cache Cache
	views ViewCounter
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithCache attaches the detail cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithViewCounter attaches the write-behind view counter.
func WithViewCounter(v ViewCounter) Option {
	return func(s *Service) { s.views = v }
}

// NewService creates a post service.
func NewService(
	repo Repository,
	categoryRepo category.Repository,
	attachmentRepo attachment.Repository,
	blobs attachment.BlobStore,
	txManager tx.Manager,
	engine *cascade.Engine,
	opts ...Option,
) *Service {
	s := &Service{
		repo:           repo,
		categoryRepo:   categoryRepo,
		attachmentRepo: attachmentRepo,
		blobs:          blobs,
		txManager:      txManager,
		engine:         engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create makes a new post with optional attachments. Posting to the
// notice category requires admin. Blobs upload before the transaction;
// on insert failure they are removed best-effort.
func (s *Service) Create(ctx context.Context, title, content string, categoryID id.ID, uploads []Upload) (*Post, error) {
	authorID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if cat.Name == category.Notice && !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only admins can post notices")
	}

	p := New(title, content, categoryID, authorID)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	attachments, err := s.uploadAll(ctx, p.ID, uploads)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.attachmentRepo.CreateBatch(ctx, attachments)
	})
	if err != nil {
		s.removeBlobs(ctx, attachments)
		return nil, err
	}

	logger.Info(ctx, "post created",
		"post_id", p.ID,
		"category", cat.Name,
		"attachments", len(attachments))

	return p, nil
}

// GetDetail serves the post detail page and counts the view. The counter
// accumulates in the view counter when available, otherwise it writes
// through to the store.
func (s *Service) GetDetail(ctx context.Context, postID id.ID) (*Detail, error) {
	if err := s.countView(ctx, postID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if detail, ok := s.cache.GetDetail(ctx, postID); ok {
			return detail, nil
		}
	}

	item, err := s.repo.GetDetail(ctx, postID)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachmentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{ListItem: *item, Attachments: attachments}
	if s.cache != nil {
		s.cache.SetDetail(ctx, detail)
	}

	return detail, nil
}

// List retrieves posts with search, sorting and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// Update edits title, content and category, and replaces the attachment
// set when uploads are given. Only the author or an admin may edit.
func (s *Service) Update(ctx context.Context, postID id.ID, title, content string, categoryID id.ID, uploads []Upload) (*Post, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p); err != nil {
		return nil, err
	}

	cat, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if cat.Name == category.Notice && !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("only admins can post notices")
	}

	p.Title = title
	p.Content = content
	p.CategoryID = categoryID
	p.Touch()
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	var (
		replaced []*attachment.Attachment
		added    []*attachment.Attachment
	)
	if uploads != nil {
		replaced, err = s.attachmentRepo.ListByPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		added, err = s.uploadAll(ctx, postID, uploads)
		if err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		if uploads == nil {
			return nil
		}
		if err := s.attachmentRepo.TombstoneByPost(ctx, postID); err != nil {
			return err
		}
		return s.attachmentRepo.CreateBatch(ctx, added)
	})
	if err != nil {
		s.removeBlobs(ctx, added)
		return nil, err
	}

	// Old blobs are gone from the post either way; reclaim them.
	s.removeBlobs(ctx, replaced)

	if s.cache != nil {
		s.cache.InvalidateDetail(ctx, postID)
	}

	return p, nil
}

// Delete tombstones the post with its comments and attachments. Only the
// author or an admin may delete. Repeat deletion is an idempotent no-op.
func (s *Service) Delete(ctx context.Context, postID id.ID) (*cascade.Result, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		if apperror.IsNotFound(err) {
			// The post may exist but be tombstoned; let the engine decide
			// between not-found and idempotent success.
			return s.engine.Delete(ctx, postID, cascade.KindPost)
		}
		return nil, err
	}
	if err := s.authorize(ctx, p); err != nil {
		return nil, err
	}

	result, err := s.engine.Delete(ctx, postID, cascade.KindPost)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateDetail(ctx, postID)
	}

	return result, nil
}

func (s *Service) countView(ctx context.Context, postID id.ID) error {
	if s.views != nil {
		counted, err := s.views.Increment(ctx, postID)
		if err != nil {
			logger.Warn(ctx, "view counter failed, writing through", "post_id", postID, "error", err)
		} else if counted {
			return nil
		}
	}
	return s.repo.IncrementViews(ctx, postID, 1)
}

func (s *Service) authorize(ctx context.Context, p *Post) error {
	if appctx.IsAdmin(ctx) {
		return nil
	}
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}
	if !p.IsOwnedBy(userID) {
		return apperror.NewForbidden("not the post author")
	}
	return nil
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

func (s *Service) uploadAll(ctx context.Context, postID id.ID, uploads []Upload) ([]*attachment.Attachment, error) {
	attachments := make([]*attachment.Attachment, 0, len(uploads))
	for _, up := range uploads {
		url, err := s.blobs.Upload(ctx, up.Filename, up.Content)
		if err != nil {
			s.removeBlobs(ctx, attachments)
			return nil, err
		}
		attachments = append(attachments, attachment.New(url, postID))
	}
	return attachments, nil
}

func (s *Service) removeBlobs(ctx context.Context, attachments []*attachment.Attachment) {
	for _, a := range attachments {
		if err := s.blobs.Delete(ctx, a.URL); err != nil {
			logger.Warn(ctx, "blob cleanup failed", "url", a.URL, "error", err)
		}
	}
}

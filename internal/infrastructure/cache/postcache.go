package cache

import (
	"context"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/pkg/logger"
)

const (
	detailKeyPrefix = "post:detail:"
	detailTTL       = 5 * time.Minute
)

// PostCache caches post detail pages in Redis. Implements post.Cache.
// Every method is best-effort: a failing cache logs and degrades to the
// store.
type PostCache struct {
	cache *Cache
}

// NewPostCache creates the post detail cache.
func NewPostCache(cache *Cache) *PostCache {
	return &PostCache{cache: cache}
}

// GetDetail reads a cached detail page.
func (c *PostCache) GetDetail(ctx context.Context, postID id.ID) (*post.Detail, bool) {
	var detail post.Detail
	found, err := c.cache.GetJSON(ctx, detailKeyPrefix+postID.String(), &detail)
	if err != nil {
		logger.Warn(ctx, "post cache read failed", "post_id", postID, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &detail, true
}

// SetDetail stores a detail page with a short TTL. View counts shown from
// cache lag the flush interval; the TTL bounds the staleness.
func (c *PostCache) SetDetail(ctx context.Context, detail *post.Detail) {
	if err := c.cache.SetJSON(ctx, detailKeyPrefix+detail.ID.String(), detail, detailTTL); err != nil {
		logger.Warn(ctx, "post cache write failed", "post_id", detail.ID, "error", err)
	}
}

// InvalidateDetail drops the cached page after a write.
func (c *PostCache) InvalidateDetail(ctx context.Context, postID id.ID) {
	if err := c.cache.Delete(ctx, detailKeyPrefix+postID.String()); err != nil {
		logger.Warn(ctx, "post cache invalidation failed", "post_id", postID, "error", err)
	}
}

var _ post.Cache = (*PostCache)(nil)

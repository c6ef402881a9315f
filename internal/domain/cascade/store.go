package cascade

import (
	"context"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

// RootState describes what resolution found at a cascade root.
type RootState struct {
	Found     bool
	DeletedAt *time.Time
}

// Deleted reports whether the root is already tombstoned.
func (s RootState) Deleted() bool {
	return s.DeletedAt != nil
}

// Reader provides the lookups resolution needs. Reads run before the
// deleting transaction begins; a failure here aborts with no side effects.
type Reader interface {
	// UserState, PostState, CommentState report existence and tombstone
	// state of a potential root, regardless of deletion.
	UserState(ctx context.Context, userID id.ID) (RootState, error)
	PostState(ctx context.Context, postID id.ID) (RootState, error)

	// CommentRefByID also returns the comment's depth for ordering.
	CommentRefByID(ctx context.Context, commentID id.ID) (RootState, CommentRef, error)

	// ChildComments returns the direct, active children of every parent in
	// one round trip. This is the per-level batch behind the frontier walk.
	ChildComments(ctx context.Context, parentIDs []id.ID) ([]CommentRef, error)

	// PostIDsByAuthor lists active posts authored by the user.
	PostIDsByAuthor(ctx context.Context, userID id.ID) ([]id.ID, error)

	// CommentsByAuthor lists active comments authored by the user.
	CommentsByAuthor(ctx context.Context, userID id.ID) ([]CommentRef, error)

	// CommentsByPost lists every active comment of a post, at all depths.
	CommentsByPost(ctx context.Context, postID id.ID) ([]CommentRef, error)

	// AttachmentsByPosts lists active attachments across the given posts.
	AttachmentsByPosts(ctx context.Context, postIDs []id.ID) ([]AttachmentRef, error)
}

// Writer applies tombstones. Implementations must execute against the
// transaction carried in ctx and must only touch rows whose deleted_at is
// still NULL, so a concurrent cascade is skipped rather than overwritten.
type Writer interface {
	TombstoneUsers(ctx context.Context, ids []id.ID, at time.Time) (int64, error)
	TombstonePosts(ctx context.Context, ids []id.ID, at time.Time) (int64, error)
	TombstoneComments(ctx context.Context, ids []id.ID, at time.Time) (int64, error)
	TombstoneAttachments(ctx context.Context, ids []id.ID, at time.Time) (int64, error)
}

// Store is the complete persistence contract of the engine.
type Store interface {
	Reader
	Writer
}

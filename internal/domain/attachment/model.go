// Package attachment provides post attachment metadata. The blob itself
// lives behind BlobStore; only the metadata row takes part in the
// soft-delete cascade.
package attachment

import (
	"context"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/entity"
	"github.com/enxxi/v-board/internal/core/id"
)

// Attachment is a file attached to a post.
type Attachment struct {
	entity.Base

	URL    string `db:"url" json:"url"`
	PostID id.ID  `db:"post_id" json:"postId"`
}

// New creates an Attachment with a generated id.
func New(url string, postID id.ID) *Attachment {
	return &Attachment{
		Base:   entity.NewBase(),
		URL:    url,
		PostID: postID,
	}
}

// Validate implements entity.Validatable.
func (a *Attachment) Validate(ctx context.Context) error {
	if a.URL == "" {
		return apperror.NewValidation("url is required").
			WithDetail("field", "url")
	}
	if id.IsNil(a.PostID) {
		return apperror.NewValidation("post is required").
			WithDetail("field", "postId")
	}
	return nil
}

// Repository defines persistence for attachment metadata.
type Repository interface {
	CreateBatch(ctx context.Context, attachments []*Attachment) error

	// ListByPost retrieves active attachments of a post.
	ListByPost(ctx context.Context, postID id.ID) ([]*Attachment, error)

	// TombstoneByPost marks all active attachments of a post deleted.
	// Used when a post's attachments are replaced on edit.
	TombstoneByPost(ctx context.Context, postID id.ID) error
}

// BlobStore is the out-of-process file storage collaborator. Uploads run
// before the owning transaction commits; deletes are best-effort and
// asynchronous, relayed through the outbox after a cascade commits.
type BlobStore interface {
	// Upload stores content under a generated key and returns the public URL.
	Upload(ctx context.Context, filename string, content []byte) (string, error)

	// Delete removes the blob behind the URL. A missing blob is not an error.
	Delete(ctx context.Context, url string) error
}

// Package cascade implements the cascading soft-delete engine. Given a
// root entity it computes the closure of rows reachable over the ownership
// edges (user→post, post→comment, comment→comment, post→attachment,
// user→comment) and tombstones all of them inside one transaction, so a
// partially deleted hierarchy is never observable.
package cascade

import (
	"github.com/enxxi/v-board/internal/core/id"
)

// Kind names the entity type of a cascade root.
type Kind string

const (
	KindUser    Kind = "user"
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// CommentRef is the slice of a comment row the engine needs: its identity
// and its depth, which drives tombstoning order.
type CommentRef struct {
	ID    id.ID
	Depth int
}

// AttachmentRef carries the attachment identity plus the blob URL handed
// to file storage after commit.
type AttachmentRef struct {
	ID  id.ID
	URL string
}

// Plan is the resolved closure of a cascade, partitioned by entity kind.
// Every id listed is tombstoned by one Apply call or none are.
type Plan struct {
	RootID   id.ID
	RootKind Kind

	Users       []id.ID
	Posts       []id.ID
	Comments    []CommentRef
	Attachments []AttachmentRef
}

// Empty reports whether the plan contains nothing to tombstone. Resolving
// an already-tombstoned root yields an empty plan.
func (p *Plan) Empty() bool {
	return len(p.Users) == 0 && len(p.Posts) == 0 &&
		len(p.Comments) == 0 && len(p.Attachments) == 0
}

// Size returns the total number of rows in the plan.
func (p *Plan) Size() int {
	return len(p.Users) + len(p.Posts) + len(p.Comments) + len(p.Attachments)
}

// AttachmentURLs lists the blob URLs of every attachment in the plan.
func (p *Plan) AttachmentURLs() []string {
	if len(p.Attachments) == 0 {
		return nil
	}
	urls := make([]string, 0, len(p.Attachments))
	for _, a := range p.Attachments {
		urls = append(urls, a.URL)
	}
	return urls
}

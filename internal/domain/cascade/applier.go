package cascade

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

// Applier writes one tombstone timestamp to every row of a plan. It must
// run inside the transaction carried by ctx; ordering is children before
// parents so storage engines with eager foreign-key checks never see an
// orphan mid-cascade.
type Applier struct {
	writer Writer
}

// NewApplier creates an applier over the given writer.
func NewApplier(writer Writer) *Applier {
	return &Applier{writer: writer}
}

// Apply tombstones the plan with a single timestamp: attachments first,
// then comments by descending depth, then posts, then the user. Rows that
// were tombstoned concurrently match zero rows and are skipped, never
// failed; the affected count reflects rows actually written.
func (a *Applier) Apply(ctx context.Context, plan *Plan, deletedAt time.Time) (int64, error) {
	var affected int64

	if len(plan.Attachments) > 0 {
		ids := make([]id.ID, 0, len(plan.Attachments))
		for _, att := range plan.Attachments {
			ids = append(ids, att.ID)
		}
		n, err := a.writer.TombstoneAttachments(ctx, ids, deletedAt)
		if err != nil {
			return affected, fmt.Errorf("tombstone attachments: %w", err)
		}
		affected += n
	}

	if len(plan.Comments) > 0 {
		for _, batch := range commentBatchesByDepth(plan.Comments) {
			n, err := a.writer.TombstoneComments(ctx, batch, deletedAt)
			if err != nil {
				return affected, fmt.Errorf("tombstone comments: %w", err)
			}
			affected += n
		}
	}

	if len(plan.Posts) > 0 {
		n, err := a.writer.TombstonePosts(ctx, plan.Posts, deletedAt)
		if err != nil {
			return affected, fmt.Errorf("tombstone posts: %w", err)
		}
		affected += n
	}

	if len(plan.Users) > 0 {
		n, err := a.writer.TombstoneUsers(ctx, plan.Users, deletedAt)
		if err != nil {
			return affected, fmt.Errorf("tombstone users: %w", err)
		}
		affected += n
	}

	return affected, nil
}

// commentBatchesByDepth groups comment ids into per-depth batches, deepest
// first, so every child is tombstoned no later than its parent.
func commentBatchesByDepth(refs []CommentRef) [][]id.ID {
	byDepth := make(map[int][]id.ID)
	for _, ref := range refs {
		byDepth[ref.Depth] = append(byDepth[ref.Depth], ref.ID)
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(depths)))

	batches := make([][]id.ID, 0, len(depths))
	for _, d := range depths {
		batches = append(batches, byDepth[d])
	}
	return batches
}

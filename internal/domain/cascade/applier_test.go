package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

// orderedWriter records each Tombstone call as (table, ids) in sequence.
type orderedWriter struct {
	calls []writerCall
}

type writerCall struct {
	table string
	ids   []id.ID
}

func (w *orderedWriter) record(table string, ids []id.ID) (int64, error) {
	w.calls = append(w.calls, writerCall{table: table, ids: ids})
	return int64(len(ids)), nil
}

func (w *orderedWriter) TombstoneUsers(_ context.Context, ids []id.ID, _ time.Time) (int64, error) {
	return w.record("users", ids)
}

func (w *orderedWriter) TombstonePosts(_ context.Context, ids []id.ID, _ time.Time) (int64, error) {
	return w.record("posts", ids)
}

func (w *orderedWriter) TombstoneComments(_ context.Context, ids []id.ID, _ time.Time) (int64, error) {
	return w.record("comments", ids)
}

func (w *orderedWriter) TombstoneAttachments(_ context.Context, ids []id.ID, _ time.Time) (int64, error) {
	return w.record("attachments", ids)
}

func TestApplier_ChildrenBeforeParents(t *testing.T) {
	userID := id.New()
	postID := id.New()
	d0 := CommentRef{ID: id.New(), Depth: 0}
	d1 := CommentRef{ID: id.New(), Depth: 1}
	d2a := CommentRef{ID: id.New(), Depth: 2}
	d2b := CommentRef{ID: id.New(), Depth: 2}
	att := AttachmentRef{ID: id.New(), URL: "/static/a.png"}

	plan := &Plan{
		RootID:      userID,
		RootKind:    KindUser,
		Users:       []id.ID{userID},
		Posts:       []id.ID{postID},
		Comments:    []CommentRef{d0, d2a, d1, d2b}, // deliberately unsorted
		Attachments: []AttachmentRef{att},
	}

	writer := &orderedWriter{}
	applier := NewApplier(writer)

	affected, err := applier.Apply(context.Background(), plan, time.Now().UTC())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if affected != 7 {
		t.Errorf("affected rows: want 7, got %d", affected)
	}

	wantTables := []string{"attachments", "comments", "comments", "comments", "posts", "users"}
	if len(writer.calls) != len(wantTables) {
		t.Fatalf("writer calls: want %d, got %d", len(wantTables), len(writer.calls))
	}
	for i, call := range writer.calls {
		if call.table != wantTables[i] {
			t.Fatalf("call %d: want table %s, got %s", i, wantTables[i], call.table)
		}
	}

	// Comment batches must run deepest first.
	depthOf := map[id.ID]int{d0.ID: 0, d1.ID: 1, d2a.ID: 2, d2b.ID: 2}
	wantDepths := []int{2, 1, 0}
	commentCalls := writer.calls[1:4]
	for i, call := range commentCalls {
		for _, cid := range call.ids {
			if depthOf[cid] != wantDepths[i] {
				t.Errorf("comment batch %d: want depth %d, got comment at depth %d",
					i, wantDepths[i], depthOf[cid])
			}
		}
	}
	if len(commentCalls[0].ids) != 2 {
		t.Errorf("depth-2 batch size: want 2, got %d", len(commentCalls[0].ids))
	}
}

func TestApplier_SkipsEmptyPartitions(t *testing.T) {
	cid := CommentRef{ID: id.New(), Depth: 0}
	plan := &Plan{
		RootID:   cid.ID,
		RootKind: KindComment,
		Comments: []CommentRef{cid},
	}

	writer := &orderedWriter{}
	applier := NewApplier(writer)

	affected, err := applier.Apply(context.Background(), plan, time.Now().UTC())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected rows: want 1, got %d", affected)
	}
	if len(writer.calls) != 1 || writer.calls[0].table != "comments" {
		t.Errorf("want a single comments call, got %v", writer.calls)
	}
}

package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

func TestTreeWalker_Descendants(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)

	root := store.addComment(postID, author, nil)
	c1 := store.addComment(postID, author, &root)
	c2 := store.addComment(postID, author, &root)
	c11 := store.addComment(postID, author, &c1)
	leaf := store.addComment(postID, author, nil)

	walker := NewTreeWalker(store)

	got, err := walker.Descendants(context.Background(), root)
	if err != nil {
		t.Fatalf("Descendants failed: %v", err)
	}

	want := map[id.ID]int{c1: 1, c2: 1, c11: 2}
	if len(got) != len(want) {
		t.Fatalf("descendant count: want %d, got %d", len(want), len(got))
	}
	for _, ref := range got {
		depth, ok := want[ref.ID]
		if !ok {
			t.Errorf("unexpected descendant %s", ref.ID)
			continue
		}
		if ref.Depth != depth {
			t.Errorf("descendant %s depth: want %d, got %d", ref.ID, depth, ref.Depth)
		}
	}

	gotLeaf, err := walker.Descendants(context.Background(), leaf)
	if err != nil {
		t.Fatalf("Descendants on leaf failed: %v", err)
	}
	if len(gotLeaf) != 0 {
		t.Errorf("leaf descendants: want none, got %d", len(gotLeaf))
	}
}

func TestTreeWalker_SkipsTombstonedChildren(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)

	root := store.addComment(postID, author, nil)
	live := store.addComment(postID, author, &root)
	dead := store.addComment(postID, author, &root)
	at := time.Now().UTC()
	store.comments[dead].deletedAt = &at

	walker := NewTreeWalker(store)

	got, err := walker.Descendants(context.Background(), root)
	if err != nil {
		t.Fatalf("Descendants failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != live {
		t.Errorf("want only the live child, got %v", got)
	}
}

func TestTreeWalker_TerminatesOnCycle(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)

	// Corrupt data: a parent link cycle. The walk must terminate and visit
	// each node once.
	a := store.addComment(postID, author, nil)
	b := store.addComment(postID, author, &a)
	store.comments[a].parentID = &b

	walker := NewTreeWalker(store)

	got, err := walker.Descendants(context.Background(), a)
	if err != nil {
		t.Fatalf("Descendants failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != b {
		t.Errorf("cycle walk: want exactly [%s], got %v", b, got)
	}
}

func TestTreeWalker_DeduplicatesOverlappingRoots(t *testing.T) {
	store := newFakeStore()
	author := store.addUser()
	postID := store.addPost(author)

	parent := store.addComment(postID, author, nil)
	child := store.addComment(postID, author, &parent)
	grandchild := store.addComment(postID, author, &child)

	walker := NewTreeWalker(store)

	// child is both a root and a descendant of parent; it must not appear
	// in the output (roots are excluded) and grandchild must appear once.
	got, err := walker.DescendantsOfAll(context.Background(), []id.ID{parent, child})
	if err != nil {
		t.Fatalf("DescendantsOfAll failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != grandchild {
		t.Errorf("want exactly [%s], got %v", grandchild, got)
	}
}

package board_repo

import (
	"testing"

	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/comment"
)

func thread(author string, parentID *id.ID) *comment.Thread {
	t := &comment.Thread{AuthorName: author}
	t.ID = id.New()
	t.ParentID = parentID
	return t
}

func TestAssembleThreads(t *testing.T) {
	// Creation order: root1, root2, reply to root1, nested reply.
	root1 := thread("alice", nil)
	root2 := thread("bob", nil)
	reply := thread("bob", &root1.ID)
	nested := thread("carol", &reply.ID)

	roots := assembleThreads([]*comment.Thread{root1, root2, reply, nested})

	if len(roots) != 2 {
		t.Fatalf("root count: want 2, got %d", len(roots))
	}
	if roots[0] != root1 || roots[1] != root2 {
		t.Error("roots must keep creation order")
	}
	if len(root1.Replies) != 1 || root1.Replies[0] != reply {
		t.Fatalf("root1 replies: want [reply], got %v", root1.Replies)
	}
	if len(reply.Replies) != 1 || reply.Replies[0] != nested {
		t.Errorf("reply replies: want [nested], got %v", reply.Replies)
	}
	if len(root2.Replies) != 0 {
		t.Errorf("root2 replies: want none, got %d", len(root2.Replies))
	}
}

func TestAssembleThreads_OrphanBecomesRoot(t *testing.T) {
	missingParent := id.New()
	orphan := thread("alice", &missingParent)

	roots := assembleThreads([]*comment.Thread{orphan})

	if len(roots) != 1 || roots[0] != orphan {
		t.Errorf("orphan must surface as a root, got %v", roots)
	}
}

func TestAssembleThreads_Empty(t *testing.T) {
	if roots := assembleThreads(nil); len(roots) != 0 {
		t.Errorf("want empty forest, got %d roots", len(roots))
	}
}

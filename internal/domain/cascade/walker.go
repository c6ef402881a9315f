package cascade

import (
	"context"
	"fmt"

	"github.com/enxxi/v-board/internal/core/id"
)

// TreeWalker expands reply subtrees breadth first. Each round trip fetches
// the children of the whole current frontier, so the number of queries is
// bounded by tree depth, not node count.
type TreeWalker struct {
	reader Reader
}

// NewTreeWalker creates a walker over the given reader.
func NewTreeWalker(reader Reader) *TreeWalker {
	return &TreeWalker{reader: reader}
}

// Descendants returns every comment reachable from root by child links,
// excluding root itself. A leaf yields an empty slice. Already-visited ids
// are never re-expanded, so a cycle in the stored data terminates instead
// of looping.
func (w *TreeWalker) Descendants(ctx context.Context, root id.ID) ([]CommentRef, error) {
	return w.DescendantsOfAll(ctx, []id.ID{root})
}

// DescendantsOfAll expands several roots in one walk, deduplicating across
// overlapping subtrees.
func (w *TreeWalker) DescendantsOfAll(ctx context.Context, roots []id.ID) ([]CommentRef, error) {
	visited := make(map[id.ID]struct{}, len(roots))
	for _, r := range roots {
		visited[r] = struct{}{}
	}

	var out []CommentRef
	frontier := append([]id.ID(nil), roots...)

	for len(frontier) > 0 {
		children, err := w.reader.ChildComments(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("expand comment frontier: %w", err)
		}

		frontier = frontier[:0]
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			out = append(out, child)
			frontier = append(frontier, child.ID)
		}
	}

	return out, nil
}

package board_repo

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/enxxi/v-board/internal/domain/post"
)

func baseListQuery() squirrel.SelectBuilder {
	return squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select("p.id").
		From("posts p").
		Join("users u ON u.id = p.author_id").
		Where("p.deleted_at IS NULL")
}

func TestApplyListFilter(t *testing.T) {
	after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   post.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  post.ListFilter{},
			wantSQL: "SELECT p.id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL",
		},
		{
			name:     "title search",
			filter:   post.ListFilter{Keyword: "golang", Type: post.SearchTitle},
			wantSQL:  "SELECT p.id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL AND p.title ILIKE $1",
			wantArgs: []any{"%golang%"},
		},
		{
			name:     "author search",
			filter:   post.ListFilter{Keyword: "alice", Type: post.SearchAuthor},
			wantSQL:  "SELECT p.id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL AND u.username ILIKE $1",
			wantArgs: []any{"%alice%"},
		},
		{
			name:     "combined search",
			filter:   post.ListFilter{Keyword: "go", Type: post.SearchAll},
			wantSQL:  "SELECT p.id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL AND (p.title ILIKE $1 OR u.username ILIKE $2)",
			wantArgs: []any{"%go%", "%go%"},
		},
		{
			name:     "created after",
			filter:   post.ListFilter{CreatedAfter: &after},
			wantSQL:  "SELECT p.id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL AND p.created_at >= $1",
			wantArgs: []any{after},
		},
		{
			name:     "search and period together",
			filter:   post.ListFilter{Keyword: "go", Type: post.SearchTitle, CreatedAfter: &after},
			wantSQL:  "SELECT p.id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL AND p.title ILIKE $1 AND p.created_at >= $2",
			wantArgs: []any{"%go%", after},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := applyListFilter(baseListQuery(), tt.filter)

			sql, args, err := q.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("Arg %d mismatch\nwant: %v\ngot:  %v", i, tt.wantArgs[i], args[i])
				}
			}
		})
	}
}

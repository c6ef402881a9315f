package post

import (
	"context"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

// SortBy selects list ordering.
type SortBy string

const (
	SortRecent SortBy = "recent"
	SortViews  SortBy = "views"
)

// SearchType selects which fields a keyword search matches.
type SearchType string

const (
	SearchTitle  SearchType = "title"
	SearchAuthor SearchType = "author"
	SearchAll    SearchType = "all"
)

// ListFilter contains filtering and pagination for post listings.
type ListFilter struct {
	// Keyword searches titles and/or author usernames
	Keyword string
	Type    SearchType

	// CreatedAfter drops posts older than the given time
	CreatedAfter *time.Time

	SortBy SortBy
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible listing defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Type:   SearchAll,
		SortBy: SortRecent,
		Limit:  10,
	}
}

// ListItem is a post row joined with its author and category names.
type ListItem struct {
	Post
	AuthorName   string `db:"author_name" json:"authorName"`
	CategoryName string `db:"category_name" json:"categoryName"`
}

// ListResult contains one page of posts.
type ListResult struct {
	Items      []ListItem `json:"items"`
	TotalCount int64      `json:"totalCount"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// Repository defines persistence for posts.
type Repository interface {
	Create(ctx context.Context, p *Post) error

	// GetByID retrieves an active post by id.
	GetByID(ctx context.Context, postID id.ID) (*Post, error)

	// GetDetail retrieves an active post joined with author and category.
	GetDetail(ctx context.Context, postID id.ID) (*ListItem, error)

	// Update writes mutable fields with optimistic locking on version.
	Update(ctx context.Context, p *Post) error

	// IncrementViews adds delta to the post's view counter.
	IncrementViews(ctx context.Context, postID id.ID, delta int64) error

	// List retrieves active posts with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (ListResult, error)
}

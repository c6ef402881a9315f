package dto

import (
	"time"

	"github.com/enxxi/v-board/internal/domain/post"
)

// CreatePostRequest for creating posts. Multipart fields; files arrive
// separately under the "files" key.
type CreatePostRequest struct {
	Title      string `form:"title" binding:"required,max=200"`
	Content    string `form:"content" binding:"required"`
	CategoryID string `form:"categoryId" binding:"required,uuid"`
}

// UpdatePostRequest for editing posts.
type UpdatePostRequest struct {
	Title      string `form:"title" binding:"required,max=200"`
	Content    string `form:"content" binding:"required"`
	CategoryID string `form:"categoryId" binding:"required,uuid"`
}

// ListPostsRequest carries search, sorting and pagination parameters.
type ListPostsRequest struct {
	Keyword string `form:"keyword"`
	Type    string `form:"type" binding:"omitempty,oneof=title author all"`
	SortBy  string `form:"sortBy" binding:"omitempty,oneof=recent views"`

	// Days limits results to posts created within the last N days.
	Days int `form:"days" binding:"omitempty,min=1"`

	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts to the domain filter.
func (r *ListPostsRequest) ToFilter() post.ListFilter {
	filter := post.DefaultListFilter()
	filter.Keyword = r.Keyword
	if r.Type != "" {
		filter.Type = post.SearchType(r.Type)
	}
	if r.SortBy != "" {
		filter.SortBy = post.SortBy(r.SortBy)
	}
	if r.Days > 0 {
		after := time.Now().AddDate(0, 0, -r.Days)
		filter.CreatedAfter = &after
	}
	if r.Limit > 0 {
		filter.Limit = r.Limit
	}
	filter.Offset = r.Offset
	return filter
}

// PostResponse represents a post in list and detail responses.
type PostResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ViewCount    int64     `json:"viewCount"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromListItem creates a response from a joined post row.
func FromListItem(item *post.ListItem) *PostResponse {
	return &PostResponse{
		ID:           item.ID.String(),
		Title:        item.Title,
		Content:      item.Content,
		ViewCount:    item.ViewCount,
		CategoryID:   item.CategoryID.String(),
		CategoryName: item.CategoryName,
		AuthorID:     item.AuthorID.String(),
		AuthorName:   item.AuthorName,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// AttachmentResponse represents an attachment in API responses.
type AttachmentResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PostDetailResponse is the detail page payload.
type PostDetailResponse struct {
	PostResponse
	Attachments []AttachmentResponse `json:"attachments"`
}

// FromDetail creates a detail response.
func FromDetail(d *post.Detail) *PostDetailResponse {
	attachments := make([]AttachmentResponse, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:  a.ID.String(),
			URL: a.URL,
		})
	}

	return &PostDetailResponse{
		PostResponse: *FromListItem(&d.ListItem),
		Attachments:  attachments,
	}
}

// ListPostsResponse is one page of posts.
type ListPostsResponse struct {
	Items      []*PostResponse `json:"items"`
	TotalCount int64           `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// FromListResult creates a page response.
func FromListResult(result post.ListResult) *ListPostsResponse {
	items := make([]*PostResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, FromListItem(&result.Items[i]))
	}

	return &ListPostsResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
}

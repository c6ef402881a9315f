package dto

import (
	"testing"
	"time"

	"github.com/enxxi/v-board/internal/domain/post"
)

func TestListPostsRequest_ToFilter_Defaults(t *testing.T) {
	filter := (&ListPostsRequest{}).ToFilter()

	if filter.Type != post.SearchAll {
		t.Errorf("default type: want %s, got %s", post.SearchAll, filter.Type)
	}
	if filter.SortBy != post.SortRecent {
		t.Errorf("default sort: want %s, got %s", post.SortRecent, filter.SortBy)
	}
	if filter.Limit != 10 {
		t.Errorf("default limit: want 10, got %d", filter.Limit)
	}
	if filter.CreatedAfter != nil {
		t.Error("default filter must not restrict the period")
	}
}

func TestListPostsRequest_ToFilter(t *testing.T) {
	req := &ListPostsRequest{
		Keyword: "golang",
		Type:    "title",
		SortBy:  "views",
		Days:    7,
		Limit:   25,
		Offset:  50,
	}

	filter := req.ToFilter()

	if filter.Keyword != "golang" {
		t.Errorf("keyword: want golang, got %s", filter.Keyword)
	}
	if filter.Type != post.SearchTitle {
		t.Errorf("type: want %s, got %s", post.SearchTitle, filter.Type)
	}
	if filter.SortBy != post.SortViews {
		t.Errorf("sort: want %s, got %s", post.SortViews, filter.SortBy)
	}
	if filter.Limit != 25 || filter.Offset != 50 {
		t.Errorf("pagination: want 25/50, got %d/%d", filter.Limit, filter.Offset)
	}

	if filter.CreatedAfter == nil {
		t.Fatal("days must set CreatedAfter")
	}
	want := time.Now().AddDate(0, 0, -7)
	if diff := filter.CreatedAfter.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("CreatedAfter: want about %v, got %v", want, *filter.CreatedAfter)
	}
}

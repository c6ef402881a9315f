package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/comment"
	"github.com/enxxi/v-board/internal/infrastructure/http/v1/dto"
)

// CommentHandler handles comment operations under a post.
type CommentHandler struct {
	*BaseHandler
	service *comment.Service
}

// NewCommentHandler creates a comment handler.
func NewCommentHandler(service *comment.Service) *CommentHandler {
	return &CommentHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /posts/:id/comments. With parentId it creates a
// reply one level below the parent.
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var parentID *id.ID
	if req.ParentID != nil {
		parsed, err := parseUUIDField(*req.ParentID, "parentId")
		if err != nil {
			h.Error(c, err)
			return
		}
		parentID = &parsed
	}

	created, err := h.service.Create(c.Request.Context(), postID, parentID, req.Content)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, created.ID)
}

// ListByPost handles GET /posts/:id/comments.
func (h *CommentHandler) ListByPost(c *gin.Context) {
	postID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	threads, err := h.service.ListByPost(c.Request.Context(), postID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromThreads(threads))
}

// Update handles PUT /comments/:id.
func (h *CommentHandler) Update(c *gin.Context) {
	commentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), commentID, req.Content)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewIDResponse(updated.ID))
}

// Delete handles DELETE /comments/:id. Tombstones the comment and its
// entire reply subtree.
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), commentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.DeleteResponse{
		AlreadyDeleted: result.AlreadyDeleted,
		Affected:       result.Affected,
	})
}

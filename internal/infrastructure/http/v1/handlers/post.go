package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/internal/infrastructure/http/v1/dto"
)

// maxUploadBytes bounds a single attachment.
const maxUploadBytes = 10 << 20

// PostHandler handles post CRUD, search and cascading deletion.
type PostHandler struct {
	*BaseHandler
	service *post.Service
}

// NewPostHandler creates a post handler.
func NewPostHandler(service *post.Service) *PostHandler {
	return &PostHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /posts (multipart with optional files).
func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if !h.BindForm(c, &req) {
		return
	}

	categoryID, err := parseUUIDField(req.CategoryID, "categoryId")
	if err != nil {
		h.Error(c, err)
		return
	}

	uploads, ok := h.readUploads(c)
	if !ok {
		return
	}

	p, err := h.service.Create(c.Request.Context(), req.Title, req.Content, categoryID, uploads)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// List handles GET /posts.
func (h *PostHandler) List(c *gin.Context) {
	var req dto.ListPostsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /posts/:id and counts the view.
func (h *PostHandler) Get(c *gin.Context) {
	postID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), postID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDetail(detail))
}

// Update handles PUT /posts/:id (multipart; files replace the attachment
// set when present).
func (h *PostHandler) Update(c *gin.Context) {
	postID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if !h.BindForm(c, &req) {
		return
	}

	categoryID, err := parseUUIDField(req.CategoryID, "categoryId")
	if err != nil {
		h.Error(c, err)
		return
	}

	uploads, ok := h.readUploads(c)
	if !ok {
		return
	}

	p, err := h.service.Update(c.Request.Context(), postID, req.Title, req.Content, categoryID, uploads)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewIDResponse(p.ID))
}

// Delete handles DELETE /posts/:id. Tombstones the post with its whole
// comment tree and attachments.
func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), postID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.DeleteResponse{
		AlreadyDeleted: result.AlreadyDeleted,
		Affected:       result.Affected,
	})
}

// readUploads collects the "files" multipart field. A request without
// files returns nil, which the service reads as "keep attachments".
func (h *PostHandler) readUploads(c *gin.Context) ([]post.Upload, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not multipart at all; treat as no files.
		return nil, true
	}

	files := form.File["files"]
	if len(files) == 0 {
		return nil, true
	}

	uploads := make([]post.Upload, 0, len(files))
	for _, fh := range files {
		content, err := readFile(fh)
		if err != nil {
			h.Error(c, apperror.NewValidation("unreadable file").
				WithDetail("filename", fh.Filename).
				WithCause(err))
			return nil, false
		}
		uploads = append(uploads, post.Upload{Filename: fh.Filename, Content: content})
	}

	return uploads, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, apperror.NewValidation("file too large").
			WithDetail("filename", fh.Filename).
			WithDetail("max_bytes", maxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/internal/infrastructure/http/v1/dto"
)

// CategoryHandler serves the fixed board sections.
type CategoryHandler struct {
	*BaseHandler
	service *category.Service
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(service *category.Service) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List handles GET /categories.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]*dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dto.FromCategory(cat))
	}

	h.OK(c, out)
}

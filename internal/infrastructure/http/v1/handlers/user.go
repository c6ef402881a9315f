package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/appctx"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/user"
	"github.com/enxxi/v-board/internal/infrastructure/http/v1/dto"
)

// UserHandler handles user profile reads and account deletion.
type UserHandler struct {
	*BaseHandler
	service *user.Service
}

// NewUserHandler creates a user handler.
func NewUserHandler(service *user.Service) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(u))
}

// Me handles GET /users/me, returning the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	raw := appctx.GetUserID(c.Request.Context())
	userID, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(u))
}

// Delete handles DELETE /users/:id. Tombstones the account and every
// post, comment and attachment it owns.
func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.DeleteResponse{
		AlreadyDeleted: result.AlreadyDeleted,
		Affected:       result.Affected,
	})
}

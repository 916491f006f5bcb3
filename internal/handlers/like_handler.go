package handlers

import (
	"net/http"

	"github.com/anonto42/postboard/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	posts PostService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(posts PostService) *LikeHandler {
	return &LikeHandler{posts: posts}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, required echo.MiddlewareFunc) {
	g.POST("/posts/:id/like", h.ToggleLike, required)
}

// ToggleLike likes the post, or unlikes it if the caller already did.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	result, err := h.posts.ToggleLike(c.Request().Context(), postID, middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

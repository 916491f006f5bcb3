package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/postboard/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// MaxFeedLimit caps the limit query parameter of the feed.
const MaxFeedLimit = 50

// FeedHandler serves the public feed and the caller's dashboard.
type FeedHandler struct {
	posts        PostService
	defaultLimit int
}

// NewFeedHandler creates a new FeedHandler. defaultLimit is used when the
// request does not ask for a size.
func NewFeedHandler(posts PostService, defaultLimit int) *FeedHandler {
	return &FeedHandler{posts: posts, defaultLimit: defaultLimit}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group, optional, required echo.MiddlewareFunc) {
	g.GET("/feed", h.GetFeed, optional)
	g.GET("/dashboard", h.GetDashboard, required)
}

// GetFeed returns the most recent posts, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	limit := h.defaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	posts, err := h.posts.LatestFeed(c.Request().Context(), limit, middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// GetDashboard lists every post of the caller.
func (h *FeedHandler) GetDashboard(c echo.Context) error {
	posts, err := h.posts.PostsByOwner(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

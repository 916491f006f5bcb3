package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/anonto42/postboard/backend/internal/middleware"
	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/anonto42/postboard/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post routes. Reads run behind optional
// authentication; writes require a token.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, optional, required echo.MiddlewareFunc) {
	g.GET("/posts/:id", h.GetPost, optional)
	g.POST("/posts", h.CreatePost, required)
	g.PUT("/posts/:id", h.UpdatePost, required)
	g.DELETE("/posts/:id", h.DeletePost, required)
}

// CreatePost creates a post from a multipart form (title, description, image).
func (h *PostHandler) CreatePost(c echo.Context) error {
	in, err := bindPostInput(c)
	if err != nil {
		return err
	}

	userID := middleware.UserID(c)
	post, err := h.posts.Create(c.Request().Context(), userID, in)
	if err != nil {
		return serviceError(c, err)
	}

	view, err := h.posts.Get(c.Request().Context(), post.ID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// GetPost returns a single post; is_liked is relative to the caller, if any.
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	view, err := h.posts.Get(c.Request().Context(), postID, middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdatePost replaces the title and description of a post the caller owns,
// and its image when a new one is uploaded.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}
	in, err := bindPostInput(c)
	if err != nil {
		return err
	}

	userID := middleware.UserID(c)
	if _, err := h.posts.Update(c.Request().Context(), postID, userID, in); err != nil {
		return serviceError(c, err)
	}

	view, err := h.posts.Get(c.Request().Context(), postID, userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeletePost removes a post the caller owns, together with its likes.
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	if err := h.posts.Destroy(c.Request().Context(), postID, middleware.UserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// bindPostInput reads title and description from a form or JSON body and
// the optional image file part.
func bindPostInput(c echo.Context) (services.PostInput, error) {
	var form models.PostForm
	if err := c.Bind(&form); err != nil {
		return services.PostInput{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	in := services.PostInput{Title: form.Title, Description: form.Description}

	file, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil
	case err != nil:
		return services.PostInput{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid image upload")
	}

	src, err := file.Open()
	if err != nil {
		return services.PostInput{}, fmt.Errorf("open uploaded image: %w", err)
	}
	defer src.Close()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(src, services.MaxImageSize+1))
	if err != nil {
		return services.PostInput{}, fmt.Errorf("read uploaded image: %w", err)
	}
	in.Image = &services.ImageUpload{Filename: file.Filename, Data: data}
	return in, nil
}

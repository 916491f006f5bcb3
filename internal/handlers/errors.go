package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/anonto42/postboard/backend/internal/services"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// PostService is the subset of services.PostService the handlers call.
type PostService interface {
	Create(ctx context.Context, authorID uint, in services.PostInput) (*models.Post, error)
	Update(ctx context.Context, postID, callerID uint, in services.PostInput) (*models.Post, error)
	Destroy(ctx context.Context, postID, callerID uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeResult, error)
	Get(ctx context.Context, postID, viewerID uint) (*models.PostView, error)
	LatestFeed(ctx context.Context, limit int, viewerID uint) ([]models.PostView, error)
	PostsByOwner(ctx context.Context, ownerID uint) ([]models.PostView, error)
}

// serviceError maps the post service's error kinds onto HTTP responses.
func serviceError(c echo.Context, err error) error {
	var verr *services.ValidationError
	var aerr *services.AuthorizationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"message": "The given data was invalid.",
			"errors":  verr.Fields,
		})
	case errors.As(err, &aerr):
		if !aerr.Authenticated {
			return echo.NewHTTPError(http.StatusUnauthorized, aerr.Reason)
		}
		return echo.NewHTTPError(http.StatusForbidden, aerr.Reason)
	case errors.Is(err, services.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	log.WithFields(log.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
		"error":  err,
	}).Error("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// postIDParam reads the :id path parameter. Anything that is not a
// positive integer cannot name a post.
func postIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return uint(id), nil
}

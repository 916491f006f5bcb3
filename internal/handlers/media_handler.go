package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/anonto42/postboard/backend/pkg/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
)

// MediaHandler serves stored images for drivers that can read them back.
type MediaHandler struct {
	store storage.Opener
}

func NewMediaHandler(store storage.Opener) *MediaHandler {
	return &MediaHandler{store: store}
}

// RegisterMediaRoutes mounts the handler under prefix, e.g. /media.
func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo, prefix string) {
	e.GET(prefix+"/*", h.GetMedia)
}

func (h *MediaHandler) GetMedia(c echo.Context) error {
	rc, err := h.store.Open(c.Request().Context(), c.Param("*"))
	if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	if err != nil {
		return internalError(err, "open media")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return internalError(err, "read media")
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, mimetype.Detect(data).String(), data)
}

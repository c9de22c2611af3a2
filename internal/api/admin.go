package api

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
	"storefront-service/internal/storage"
)

type DashboardService interface {
	Stats(ctx context.Context) (*service.DashboardStats, error)
}

type ImageStore interface {
	Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) ([]byte, string, error)
}

type AdminHandler struct {
	dashboardService DashboardService
	images           ImageStore
}

func NewAdminHandler(dashboardService DashboardService, images ImageStore) *AdminHandler {
	return &AdminHandler{dashboardService: dashboardService, images: images}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.dashboardService.Stats(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// UploadImage stores the multipart "file" field and answers its public URL.
func (h *AdminHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Missing file")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Unreadable file")
	}
	defer src.Close()

	// Read one byte past the limit so oversize uploads are rejected, not truncated.
	data, err := io.ReadAll(io.LimitReader(src, storage.MaxImageSize+1))
	if err != nil {
		return badRequest(c, "Unreadable file")
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.images.Upload(c.Request().Context(), file.Filename, data, contentType)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}

func (h *AdminHandler) ServeMedia(c echo.Context) error {
	data, contentType, err := h.images.Open(c.Request().Context(), c.Param("*"))
	if err != nil {
		return errorJSON(c, err)
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, contentType, data)
}

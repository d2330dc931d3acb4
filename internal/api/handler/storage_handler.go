package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// maxUploadBytes caps a single uploaded file.
const maxUploadBytes = 10 << 20

// StorageHandler implements the two-step upload and file retrieval.
type StorageHandler struct {
	uploads ports.UploadService
}

func NewStorageHandler(uploads ports.UploadService) *StorageHandler {
	return &StorageHandler{uploads: uploads}
}

type uploadResponse struct {
	StorageID string `json:"storage_id"`
}

type resolveResponse struct {
	StorageID string `json:"storage_id"`
	URL       string `json:"url"`
}

// UploadURL issues a short-lived upload target for the caller.
//
// @Summary      Generate upload URL
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UploadTarget
// @Failure      401  {object}  errorResponse
// @Router       /v1/storage/upload-url [post]
func (h *StorageHandler) UploadURL(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	target, err := h.uploads.GenerateUploadURL(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, target)
}

// Upload accepts the raw file bytes sent to an upload target. The token in
// the path is the only credential.
//
// @Summary      Upload file bytes
// @Tags         storage
// @Accept       application/octet-stream
// @Produce      json
// @Param        token  path      string  true  "Upload token from the upload URL"
// @Success      201    {object}  uploadResponse
// @Failure      401    {object}  errorResponse
// @Failure      413    {object}  errorResponse
// @Router       /v1/storage/upload/{token} [put]
func (h *StorageHandler) Upload(c echo.Context) error {
	req := c.Request()
	if req.ContentLength > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	body := http.MaxBytesReader(c.Response(), req.Body, maxUploadBytes)

	file, err := h.uploads.Accept(req.Context(), c.Param("token"), req.Header.Get(echo.HeaderContentType), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
		}
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{StorageID: file.StorageID})
}

// Resolve exchanges a storage id for a fetchable URL.
//
// @Summary      Resolve storage reference
// @Tags         storage
// @Produce      json
// @Security     BearerAuth
// @Param        storage_id  path      string  true  "Storage id"
// @Success      200         {object}  resolveResponse
// @Failure      404         {object}  errorResponse
// @Router       /v1/storage/files/{storage_id}/url [get]
func (h *StorageHandler) Resolve(c echo.Context) error {
	id := c.Param("storage_id")
	url, err := h.uploads.ResolveURL(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolveResponse{StorageID: id, URL: url})
}

// Download streams a stored file.
//
// @Summary      Download file
// @Tags         storage
// @Produce      application/octet-stream
// @Param        storage_id  path  string  true  "Storage id"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /v1/storage/files/{storage_id} [get]
func (h *StorageHandler) Download(c echo.Context) error {
	rc, file, err := h.uploads.Open(c.Request().Context(), c.Param("storage_id"))
	if err != nil {
		return err
	}
	defer rc.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.FormatInt(file.Size, 10))
	header.Set("Cache-Control", "private, max-age=3600")
	return c.Stream(http.StatusOK, contentTypeOf(file), rc)
}

func contentTypeOf(file *domain.StoredFile) string {
	if file.ContentType == "" {
		return echo.MIMEOctetStream
	}
	return file.ContentType
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/martin13396/secure-media-library/internal/dto"
	"github.com/martin13396/secure-media-library/internal/service"
	"github.com/martin13396/secure-media-library/pkg/response"
)

const (
	manifestMIME = "application/vnd.apple.mpegurl"
	segmentMIME  = "video/mp2t"
	keyMIME      = "application/octet-stream"
)

// MediaHandler handles the library listing and the delivery endpoints
type MediaHandler struct {
	media service.MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(media service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// List handles GET /api/media
func (h *MediaHandler) List(c *gin.Context) {
	var query dto.ListMediaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid query parameters")
		return
	}

	resp, err := h.media.List(c.Request.Context(), query)
	if err != nil {
		response.InternalError(c, "failed to list media")
		return
	}

	response.Success(c, resp)
}

// Get handles GET /api/media/:id
func (h *MediaHandler) Get(c *gin.Context) {
	media, err := h.media.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mediaError(c, err)
		return
	}

	resp := dto.NewMediaResponse(media)
	response.Success(c, resp)
}

// ToggleFavorite handles POST /api/media/:id/favorite
func (h *MediaHandler) ToggleFavorite(c *gin.Context) {
	resp, err := h.media.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mediaError(c, err)
		return
	}

	response.Success(c, resp)
}

// Stream handles GET /api/media/:id/stream, returning the rewritten
// playlist whose key and segment URIs point back at this API
func (h *MediaHandler) Stream(c *gin.Context) {
	manifest, err := h.media.Manifest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mediaError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, manifestMIME, manifest)
}

// View handles GET /api/media/:id/view
func (h *MediaHandler) View(c *gin.Context) {
	h.serveContent(c, service.VariantPrimary)
}

// Thumbnail handles GET /api/media/:id/thumbnail
func (h *MediaHandler) Thumbnail(c *gin.Context) {
	h.serveContent(c, service.VariantThumbnail)
}

// Preview handles GET /api/media/:id/preview
func (h *MediaHandler) Preview(c *gin.Context) {
	h.serveContent(c, service.VariantPreview)
}

// Segment handles GET /api/media/segment/:id/:n, serving stored ciphertext
// for the player to decrypt
func (h *MediaHandler) Segment(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 0 {
		response.NotFound(c, response.CodeAssetNotFound, "segment not found")
		return
	}

	body, err := h.media.Segment(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		h.mediaError(c, err)
		return
	}

	c.Data(http.StatusOK, segmentMIME, body)
}

// Key handles GET /api/media/keys/:id, serving the HLS content key
func (h *MediaHandler) Key(c *gin.Context) {
	key := h.media.MasterKey()
	if len(key) == 0 {
		response.NotFound(c, response.CodeAssetNotFound, "key not found")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, keyMIME, key)
}

func (h *MediaHandler) serveContent(c *gin.Context, variant service.ContentVariant) {
	body, mime, err := h.media.Content(c.Request.Context(), c.Param("id"), variant)
	if err != nil {
		h.mediaError(c, err)
		return
	}

	c.Data(http.StatusOK, mime, body)
}

func (h *MediaHandler) mediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMediaNotFound):
		response.NotFound(c, response.CodeMediaNotFound, "media not found")
	case errors.Is(err, service.ErrAssetNotFound):
		response.NotFound(c, response.CodeAssetNotFound, "asset not found")
	default:
		response.InternalError(c, "media request failed")
	}
}

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/assets"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/rs/zerolog"
)

// sniffLen is the number of bytes inspected to detect an upload's type.
const sniffLen = 512

// AssetStore stores uploaded brand assets and returns their public URL.
type AssetStore interface {
	Put(ctx context.Context, websiteID uuid.UUID, kind, contentType, ext string, body io.Reader) (string, error)
}

// AssetRecorder records an uploaded asset's URL on the brand configuration.
type AssetRecorder interface {
	SetAssetURL(ctx context.Context, websiteID uuid.UUID, kind branding.AssetKind, assetURL string) (*models.BrandConfiguration, error)
}

// AssetsHandler handles brand asset uploads.
type AssetsHandler struct {
	store    AssetStore
	recorder AssetRecorder
	logger   zerolog.Logger
}

// NewAssetsHandler creates a new AssetsHandler. A nil store disables uploads.
func NewAssetsHandler(store AssetStore, recorder AssetRecorder, logger zerolog.Logger) *AssetsHandler {
	return &AssetsHandler{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "assets_handler").Logger(),
	}
}

// UploadRoute is the route pattern of asset uploads.
const UploadRoute = "/api/websites/:websiteId/brand/assets/:kind"

// RegisterRoutes registers asset routes on the given /api/websites group.
func (h *AssetsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/:websiteId/brand/assets/:kind", h.Upload)
}

// Upload stores a logo or favicon and records its URL.
// POST /api/websites/:websiteId/brand/assets/:kind
func (h *AssetsHandler) Upload(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	kind := branding.AssetKind(c.Param("kind"))
	if !kind.IsValid() {
		respondError(c, h.logger, apierr.Validation("invalid asset kind",
			apierr.FieldError{Field: "kind", Message: "must be one of [logo favicon]"}), "")
		return
	}

	if h.store == nil {
		respondError(c, h.logger, fmt.Errorf("asset storage is not configured: %w", apierr.ErrUnavailable), "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				apierr.Fail(apierr.CodePayloadTooLarge, "asset exceeds 2 MiB", nil))
			return
		}
		respondError(c, h.logger, apierr.Validation("multipart field \"file\" is required"), "")
		return
	}
	if fileHeader.Size > assets.MaxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
			apierr.Fail(apierr.CodePayloadTooLarge, "asset exceeds 2 MiB", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, err, "failed to open uploaded asset")
		return
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		respondError(c, h.logger, err, "failed to read uploaded asset")
		return
	}
	head = head[:n]

	contentType, ext, err := assets.DetectType(head)
	if err != nil {
		respondError(c, h.logger, apierr.Validation("unsupported asset type",
			apierr.FieldError{Field: "file", Message: err.Error()}), "")
		return
	}

	ctx := c.Request.Context()
	body := io.MultiReader(bytes.NewReader(head), file)
	assetURL, err := h.store.Put(ctx, websiteID, string(kind), contentType, ext, body)
	if err != nil {
		respondError(c, h.logger, err, "failed to store asset")
		return
	}

	cfg, err := h.recorder.SetAssetURL(ctx, websiteID, kind, assetURL)
	if err != nil {
		respondError(c, h.logger, err, "failed to record asset url")
		return
	}

	h.logger.Info().
		Str("website_id", websiteID.String()).
		Str("kind", string(kind)).
		Str("content_type", contentType).
		Int64("size", fileHeader.Size).
		Msg("brand asset uploaded")
	respond(c, http.StatusCreated, gin.H{"url": assetURL, "brand": cfg})
}

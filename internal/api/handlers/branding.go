package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/rs/zerolog"
)

// BrandingService defines the branding operations used by BrandingHandler.
type BrandingService interface {
	WidgetBranding(ctx context.Context, websiteID uuid.UUID) (*models.WidgetBrandingConfig, error)
	UpdateWidgetBranding(ctx context.Context, websiteID uuid.UUID, req *branding.UpdateWidgetBrandingRequest) (*models.WidgetBrandingConfig, error)
	ResetWidgetBranding(ctx context.Context, websiteID uuid.UUID) (*models.WidgetBrandingConfig, error)
	BrandConfiguration(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, error)
	UpdateBrandConfiguration(ctx context.Context, websiteID uuid.UUID, req *branding.UpdateBrandRequest) (*models.BrandConfiguration, error)
	ResetBrandConfiguration(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, error)
	ApplyTemplate(ctx context.Context, websiteID, templateID uuid.UUID) (*models.BrandConfiguration, error)
}

// BrandingHandler handles per-website branding endpoints.
type BrandingHandler struct {
	service BrandingService
	logger  zerolog.Logger
}

// NewBrandingHandler creates a new BrandingHandler.
func NewBrandingHandler(service BrandingService, logger zerolog.Logger) *BrandingHandler {
	return &BrandingHandler{
		service: service,
		logger:  logger.With().Str("component", "branding_handler").Logger(),
	}
}

// RegisterRoutes registers branding routes on the given /api/websites group.
func (h *BrandingHandler) RegisterRoutes(r *gin.RouterGroup) {
	site := r.Group("/:websiteId")
	{
		site.GET("/widget-branding", h.GetWidgetBranding)
		site.PUT("/widget-branding", h.UpdateWidgetBranding)
		site.POST("/widget-branding/reset", h.ResetWidgetBranding)

		site.GET("/brand", h.GetBrand)
		site.PUT("/brand", h.UpdateBrand)
		site.POST("/brand/reset", h.ResetBrand)
		site.POST("/brand/apply-template/:templateId", h.ApplyTemplate)
	}
}

// GetWidgetBranding returns the widget branding, creating defaults on first read.
// GET /api/websites/:websiteId/widget-branding
func (h *BrandingHandler) GetWidgetBranding(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	cfg, err := h.service.WidgetBranding(c.Request.Context(), websiteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load widget branding")
		return
	}
	respond(c, http.StatusOK, cfg)
}

// UpdateWidgetBranding applies a partial update to the widget branding.
// PUT /api/websites/:websiteId/widget-branding
func (h *BrandingHandler) UpdateWidgetBranding(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	var req branding.UpdateWidgetBrandingRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.service.UpdateWidgetBranding(c.Request.Context(), websiteID, &req)
	if err != nil {
		respondError(c, h.logger, err, "failed to update widget branding")
		return
	}

	h.logger.Info().Str("website_id", websiteID.String()).Msg("widget branding updated")
	respond(c, http.StatusOK, cfg)
}

// ResetWidgetBranding restores the widget branding defaults.
// POST /api/websites/:websiteId/widget-branding/reset
func (h *BrandingHandler) ResetWidgetBranding(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	cfg, err := h.service.ResetWidgetBranding(c.Request.Context(), websiteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to reset widget branding")
		return
	}

	h.logger.Info().Str("website_id", websiteID.String()).Msg("widget branding reset")
	respond(c, http.StatusOK, cfg)
}

// GetBrand returns the brand configuration, creating defaults on first read.
// GET /api/websites/:websiteId/brand
func (h *BrandingHandler) GetBrand(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	cfg, err := h.service.BrandConfiguration(c.Request.Context(), websiteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load brand configuration")
		return
	}
	respond(c, http.StatusOK, cfg)
}

// UpdateBrand applies a partial update to the brand configuration.
// PUT /api/websites/:websiteId/brand
func (h *BrandingHandler) UpdateBrand(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	var req branding.UpdateBrandRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.service.UpdateBrandConfiguration(c.Request.Context(), websiteID, &req)
	if err != nil {
		respondError(c, h.logger, err, "failed to update brand configuration")
		return
	}

	h.logger.Info().Str("website_id", websiteID.String()).Msg("brand configuration updated")
	respond(c, http.StatusOK, cfg)
}

// ResetBrand restores the brand configuration defaults.
// POST /api/websites/:websiteId/brand/reset
func (h *BrandingHandler) ResetBrand(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	cfg, err := h.service.ResetBrandConfiguration(c.Request.Context(), websiteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to reset brand configuration")
		return
	}

	h.logger.Info().Str("website_id", websiteID.String()).Msg("brand configuration reset")
	respond(c, http.StatusOK, cfg)
}

// ApplyTemplate copies an agency template into the brand configuration.
// POST /api/websites/:websiteId/brand/apply-template/:templateId
func (h *BrandingHandler) ApplyTemplate(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}
	templateID, ok := uuidParam(c, "templateId")
	if !ok {
		return
	}

	cfg, err := h.service.ApplyTemplate(c.Request.Context(), websiteID, templateID)
	if err != nil {
		respondError(c, h.logger, err, "failed to apply brand template")
		return
	}

	h.logger.Info().
		Str("website_id", websiteID.String()).
		Str("template_id", templateID.String()).
		Msg("brand template applied")
	respond(c, http.StatusOK, cfg)
}

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

// TemplateService defines the agency template operations.
type TemplateService interface {
	CreateTemplate(ctx context.Context, agencyID uuid.UUID, req *branding.TemplateRequest) (*models.AgencyBrandTemplate, error)
	ListTemplates(ctx context.Context, agencyID uuid.UUID) ([]*models.AgencyBrandTemplate, error)
	Template(ctx context.Context, agencyID, templateID uuid.UUID) (*models.AgencyBrandTemplate, error)
	UpdateTemplate(ctx context.Context, agencyID, templateID uuid.UUID, req *branding.TemplateRequest) (*models.AgencyBrandTemplate, error)
	DeleteTemplate(ctx context.Context, agencyID, templateID uuid.UUID) error
}

// BrandTemplatesHandler handles agency brand template endpoints.
type BrandTemplatesHandler struct {
	service TemplateService
	logger  zerolog.Logger
}

// NewBrandTemplatesHandler creates a new BrandTemplatesHandler.
func NewBrandTemplatesHandler(service TemplateService, logger zerolog.Logger) *BrandTemplatesHandler {
	return &BrandTemplatesHandler{
		service: service,
		logger:  logger.With().Str("component", "brand_templates_handler").Logger(),
	}
}

// RegisterRoutes registers template routes on the given /api/agencies group.
func (h *BrandTemplatesHandler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/:agencyId/brand-templates")
	{
		templates.GET("", h.List)
		templates.POST("", h.Create)
		templates.GET("/:templateId", h.Get)
		templates.PUT("/:templateId", h.Update)
		templates.DELETE("/:templateId", h.Delete)
	}
}

// List returns the agency's templates sorted by name.
// GET /api/agencies/:agencyId/brand-templates
func (h *BrandTemplatesHandler) List(c *gin.Context) {
	agencyID, ok := uuidParam(c, "agencyId")
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), agencyID)
	if err != nil {
		respondError(c, h.logger, err, "failed to list brand templates")
		return
	}
	respond(c, http.StatusOK, templates)
}

// Create stores a new template.
// POST /api/agencies/:agencyId/brand-templates
func (h *BrandTemplatesHandler) Create(c *gin.Context) {
	agencyID, ok := uuidParam(c, "agencyId")
	if !ok {
		return
	}

	var req branding.TemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateTemplate(c.Request.Context(), agencyID, &req)
	if err != nil {
		respondError(c, h.logger, err, "failed to create brand template")
		return
	}
	respond(c, http.StatusCreated, t)
}

// Get returns a single template.
// GET /api/agencies/:agencyId/brand-templates/:templateId
func (h *BrandTemplatesHandler) Get(c *gin.Context) {
	agencyID, templateID, ok := h.ids(c)
	if !ok {
		return
	}

	t, err := h.service.Template(c.Request.Context(), agencyID, templateID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load brand template")
		return
	}
	respond(c, http.StatusOK, t)
}

// Update replaces a template's fields.
// PUT /api/agencies/:agencyId/brand-templates/:templateId
func (h *BrandTemplatesHandler) Update(c *gin.Context) {
	agencyID, templateID, ok := h.ids(c)
	if !ok {
		return
	}

	var req branding.TemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.service.UpdateTemplate(c.Request.Context(), agencyID, templateID, &req)
	if err != nil {
		respondError(c, h.logger, err, "failed to update brand template")
		return
	}
	respond(c, http.StatusOK, t)
}

// Delete removes a template. Websites it was applied to keep their copy.
// DELETE /api/agencies/:agencyId/brand-templates/:templateId
func (h *BrandTemplatesHandler) Delete(c *gin.Context) {
	agencyID, templateID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), agencyID, templateID); err != nil {
		respondError(c, h.logger, err, "failed to delete brand template")
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": templateID})
}

func (h *BrandTemplatesHandler) ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	agencyID, ok := uuidParam(c, "agencyId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	templateID, ok := uuidParam(c, "templateId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return agencyID, templateID, true
}

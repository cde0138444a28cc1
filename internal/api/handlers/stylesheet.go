package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/stylesheet"
	"github.com/rs/zerolog"
)

// StylesheetCacheControl is sent with every generated stylesheet.
const StylesheetCacheControl = "public, max-age=3600"

// StylesheetSource returns the generated stylesheet for a website.
type StylesheetSource interface {
	Get(ctx context.Context, websiteID uuid.UUID) (*stylesheet.Stylesheet, error)
}

// StylesheetHandler serves generated brand stylesheets to embedding pages.
type StylesheetHandler struct {
	source StylesheetSource
	logger zerolog.Logger
}

// NewStylesheetHandler creates a new StylesheetHandler.
func NewStylesheetHandler(source StylesheetSource, logger zerolog.Logger) *StylesheetHandler {
	return &StylesheetHandler{
		source: source,
		logger: logger.With().Str("component", "stylesheet_handler").Logger(),
	}
}

// RegisterPublicRoutes registers stylesheet routes on the public /api/brand group.
func (h *StylesheetHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/:websiteId/css", h.CSS)
	r.GET("/:websiteId/widget.css", h.CSS)
	r.GET("/:websiteId/variables", h.Variables)
}

// CSS serves the stylesheet as text/css, answering 304 when the client
// already holds the current version.
// GET /api/brand/:websiteId/css
// GET /api/brand/:websiteId/widget.css
func (h *StylesheetHandler) CSS(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	sheet, err := h.source.Get(c.Request.Context(), websiteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to generate stylesheet")
		return
	}

	c.Header("Cache-Control", StylesheetCacheControl)
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("ETag", sheet.ETag)

	if etagMatches(c.GetHeader("If-None-Match"), sheet.ETag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(sheet.CSS))
}

// Variables returns the custom properties of the stylesheet as JSON.
// GET /api/brand/:websiteId/variables
func (h *StylesheetHandler) Variables(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	sheet, err := h.source.Get(c.Request.Context(), websiteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to generate stylesheet")
		return
	}

	c.Header("Cache-Control", StylesheetCacheControl)
	respond(c, http.StatusOK, gin.H{
		"variables": sheet.VariableMap(),
		"etag":      sheet.ETag,
	})
}

// etagMatches reports whether an If-None-Match header matches etag. Weak
// validators compare equal to their strong form.
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

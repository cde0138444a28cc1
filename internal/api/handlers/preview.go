package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PreviewHub streams stylesheet updates to preview clients.
type PreviewHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, websiteID uuid.UUID)
}

// PreviewHandler handles the live branding preview websocket.
type PreviewHandler struct {
	hub    PreviewHub
	logger zerolog.Logger
}

// NewPreviewHandler creates a new PreviewHandler.
func NewPreviewHandler(hub PreviewHub, logger zerolog.Logger) *PreviewHandler {
	return &PreviewHandler{
		hub:    hub,
		logger: logger.With().Str("component", "preview_handler").Logger(),
	}
}

// RegisterRoutes registers preview routes on the given /api/websites group.
func (h *PreviewHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:websiteId/brand/preview/ws", h.WebSocket)
}

// WebSocket upgrades the connection and streams the website's stylesheet
// each time its branding changes.
// GET /api/websites/:websiteId/brand/preview/ws
func (h *PreviewHandler) WebSocket(c *gin.Context) {
	websiteID, ok := uuidParam(c, "websiteId")
	if !ok {
		return
	}

	h.logger.Debug().Str("website_id", websiteID.String()).Msg("preview client connecting")
	h.hub.HandleWebSocket(c.Writer, c.Request, websiteID)
}

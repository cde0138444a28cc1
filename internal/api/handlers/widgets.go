package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/plinth-cms/plinth/internal/tracking"
	"github.com/plinth-cms/plinth/internal/widgets"
	"github.com/rs/zerolog"
)

// maxFilterTags bounds the tags accepted in a render query.
const maxFilterTags = 10

// WidgetRenderer renders one page of a widget.
type WidgetRenderer interface {
	Render(ctx context.Context, widgetID uuid.UUID, req widgets.RenderRequest) (*widgets.Result, error)
}

// EventTracker records widget events.
type EventTracker interface {
	Track(ctx context.Context, widgetID uuid.UUID, req *tracking.TrackRequest, userAgent string) (*models.WidgetEvent, error)
}

// WidgetsHandler handles the public widget endpoints called by embed clients.
type WidgetsHandler struct {
	renderer WidgetRenderer
	tracker  EventTracker
	logger   zerolog.Logger
}

// NewWidgetsHandler creates a new WidgetsHandler.
func NewWidgetsHandler(renderer WidgetRenderer, tracker EventTracker, logger zerolog.Logger) *WidgetsHandler {
	return &WidgetsHandler{
		renderer: renderer,
		tracker:  tracker,
		logger:   logger.With().Str("component", "widgets_handler").Logger(),
	}
}

// RegisterPublicRoutes registers widget routes on the public /widgets group.
func (h *WidgetsHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/:widgetId/render", h.Render)
	r.POST("/:widgetId/track", h.Track)
}

// Render returns the markup, stylesheet, items and pagination of one page.
// GET /widgets/:widgetId/render?page=&search=&category=&tags=&layout=
func (h *WidgetsHandler) Render(c *gin.Context) {
	widgetID, ok := uuidParam(c, "widgetId")
	if !ok {
		return
	}

	res, err := h.renderer.Render(c.Request.Context(), widgetID, parseRenderRequest(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to render widget")
		return
	}

	c.Header("Cache-Control", "no-store")
	respond(c, http.StatusOK, res)
}

// Track records a view or click event.
// POST /widgets/:widgetId/track
func (h *WidgetsHandler) Track(c *gin.Context) {
	widgetID, ok := uuidParam(c, "widgetId")
	if !ok {
		return
	}

	var req tracking.TrackRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.tracker.Track(c.Request.Context(), widgetID, &req, c.Request.UserAgent())
	if err != nil {
		respondError(c, h.logger, err, "failed to record widget event")
		return
	}
	respond(c, http.StatusAccepted, gin.H{"id": e.ID})
}

// parseRenderRequest reads the render query. Malformed pages fall back to 1
// and unknown layouts are ignored by the renderer.
func parseRenderRequest(c *gin.Context) widgets.RenderRequest {
	req := widgets.RenderRequest{
		Page:     1,
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Layout:   models.WidgetLayout(c.Query("layout")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		req.Page = page
	}
	if perPage, err := strconv.Atoi(c.Query("per_page")); err == nil && perPage > 0 {
		req.PerPage = perPage
	}

	// Accept both ?tags=a,b and ?tags=a&tags=b.
	for _, raw := range c.QueryArray("tags") {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" || len(req.Tags) >= maxFilterTags {
				continue
			}
			req.Tags = append(req.Tags, tag)
		}
	}
	return req
}

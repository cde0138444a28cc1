package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MetricsExporter serves collected metrics.
type MetricsExporter interface {
	Handler() gin.HandlerFunc
}

// MetricsHandler handles Prometheus-compatible metrics endpoints.
type MetricsHandler struct {
	exporter MetricsExporter
	logger   zerolog.Logger
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(exporter MetricsExporter, logger zerolog.Logger) *MetricsHandler {
	return &MetricsHandler{
		exporter: exporter,
		logger:   logger.With().Str("component", "metrics_handler").Logger(),
	}
}

// RegisterPublicRoutes registers metrics routes that don't require authentication.
func (h *MetricsHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/metrics", h.exporter.Handler())
}

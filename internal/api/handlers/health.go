package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult represents the result of a health check.
type HealthCheckResult struct {
	Status   HealthStatus   `json:"status"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status HealthStatus                  `json:"status"`
	Checks map[string]*HealthCheckResult `json:"checks,omitempty"`
	Error  string                        `json:"error,omitempty"`
}

// DatabaseHealthChecker defines the interface for database health checking.
type DatabaseHealthChecker interface {
	Ping(ctx context.Context) error
	Health() map[string]any
}

// CacheHealthChecker checks the optional Redis connection.
type CacheHealthChecker interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker reports whether the server should receive traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// HealthHandler handles health-related HTTP endpoints.
type HealthHandler struct {
	db        DatabaseHealthChecker
	cache     CacheHealthChecker
	readiness ReadinessChecker
	logger    zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. cache may be nil when Redis
// is not configured.
func NewHealthHandler(db DatabaseHealthChecker, cache CacheHealthChecker, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger.With().Str("component", "health_handler").Logger(),
	}
}

// SetReadiness makes /health/ready fail once r stops being ready.
func (h *HealthHandler) SetReadiness(r ReadinessChecker) {
	h.readiness = r
}

// RegisterPublicRoutes registers health check routes that don't require authentication.
func (h *HealthHandler) RegisterPublicRoutes(r *gin.Engine) {
	health := r.Group("/health")
	{
		health.GET("", h.Overall)
		health.GET("/db", h.Database)
		health.GET("/cache", h.Cache)
		health.GET("/ready", h.Ready)
	}
}

// Overall returns the overall server health status.
// GET /health
func (h *HealthHandler) Overall(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := &HealthResponse{
		Status: HealthStatusHealthy,
		Checks: map[string]*HealthCheckResult{
			"database": h.checkDatabase(ctx),
			"cache":    h.checkCache(ctx),
		},
	}

	for _, result := range response.Checks {
		if result.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		}
	}
	if response.Status == HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Ready reports whether the server accepts traffic. It fails while the
// server drains during shutdown.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.readiness != nil && !h.readiness.IsReady() {
		c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status: HealthStatusUnhealthy,
			Error:  "server is shutting down",
		})
		return
	}
	h.single(c, "database", h.checkDatabase)
}

// Database returns the database health status.
// GET /health/db
func (h *HealthHandler) Database(c *gin.Context) {
	h.single(c, "database", h.checkDatabase)
}

// Cache returns the Redis health status.
// GET /health/cache
func (h *HealthHandler) Cache(c *gin.Context) {
	h.single(c, "cache", h.checkCache)
}

func (h *HealthHandler) single(c *gin.Context, name string, check func(context.Context) *HealthCheckResult) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result := check(ctx)
	response := &HealthResponse{
		Status: result.Status,
		Checks: map[string]*HealthCheckResult{name: result},
	}

	if result.Status == HealthStatusUnhealthy {
		response.Error = result.Error
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// checkDatabase performs a database health check.
func (h *HealthHandler) checkDatabase(ctx context.Context) *HealthCheckResult {
	start := time.Now()
	result := &HealthCheckResult{
		Status: HealthStatusHealthy,
	}

	if h.db == nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "database not configured"
		result.Duration = time.Since(start).String()
		return result
	}

	err := h.db.Ping(ctx)
	result.Duration = time.Since(start).String()

	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "database ping failed"
		h.logger.Warn().Err(err).Msg("database health check failed")
		return result
	}

	// Include pool stats
	result.Details = h.db.Health()

	return result
}

// checkCache performs a Redis health check. The stylesheet cache falls back
// to memory without Redis, so an unconfigured cache is healthy.
func (h *HealthHandler) checkCache(ctx context.Context) *HealthCheckResult {
	start := time.Now()
	result := &HealthCheckResult{
		Status: HealthStatusHealthy,
	}

	if h.cache == nil {
		result.Details = map[string]any{"backend": "memory"}
		result.Duration = time.Since(start).String()
		return result
	}

	err := h.cache.Ping(ctx)
	result.Duration = time.Since(start).String()

	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "redis unreachable"
		h.logger.Warn().Err(err).Msg("cache health check failed")
		return result
	}

	result.Details = map[string]any{"backend": "redis"}
	return result
}

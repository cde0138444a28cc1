// Package api provides the HTTP API for the Plinth server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/plinth-cms/plinth/internal/api/handlers"
	"github.com/plinth-cms/plinth/internal/api/middleware"
	"github.com/plinth-cms/plinth/internal/assets"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/config"
	"github.com/plinth-cms/plinth/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// multipartOverhead is added to the upload limit for form boundaries and headers.
const multipartOverhead = 64 << 10

// Config holds configuration for the API router.
type Config struct {
	// AllowedOrigins for admin CORS. Empty means all origins allowed outside production.
	AllowedOrigins []string
	Environment    config.Environment
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// AdminAPIKeys guard the /api/websites and /api/agencies groups.
	AdminAPIKeys []string
	MaxBodyBytes int64
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:    []string{},
		Environment:       config.EnvDevelopment,
		RateLimitRequests: config.DefaultRateLimitRequests,
		RateLimitPeriod:   config.DefaultRateLimitPeriod,
		MaxBodyBytes:      config.DefaultMaxBodyBytes,
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Dependencies are the services the router dispatches to.
type Dependencies struct {
	DB          handlers.DatabaseHealthChecker
	Cache       handlers.CacheHealthChecker // nil when Redis is not configured
	Redis       redis.UniversalClient       // shares rate limit counters when set
	Branding    *branding.Service
	Stylesheets handlers.StylesheetSource
	Renderer    handlers.WidgetRenderer
	Tracker     handlers.EventTracker
	Assets      handlers.AssetStore // nil disables uploads
	Preview     handlers.PreviewHub
	Metrics     *metrics.Metrics // nil disables /metrics
	Readiness   handlers.ReadinessChecker
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router with the given dependencies.
func NewRouter(cfg Config, deps Dependencies, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.SecurityHeaders())
	r.Engine.Use(middleware.RouteCORS(middleware.CORS(cfg.AllowedOrigins, cfg.Environment, logger)))

	// Rate limiting
	rateLimiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.RateLimitRequests,
		Period:   cfg.RateLimitPeriod,
		Redis:    deps.Redis,
	}, logger)
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)

	r.Engine.Use(middleware.RouteBodyLimits(cfg.MaxBodyBytes, map[string]int64{
		handlers.UploadRoute: assets.MaxUploadBytes + multipartOverhead,
	}))

	if deps.Metrics != nil {
		r.Engine.Use(deps.Metrics.Middleware())
	}

	// Public endpoints (no auth required)
	health := handlers.NewHealthHandler(deps.DB, deps.Cache, logger)
	if deps.Readiness != nil {
		health.SetReadiness(deps.Readiness)
	}
	health.RegisterPublicRoutes(r.Engine)
	handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate, logger).RegisterPublicRoutes(r.Engine)
	if deps.Metrics != nil {
		handlers.NewMetricsHandler(deps.Metrics, logger).RegisterPublicRoutes(r.Engine)
	}

	handlers.NewWidgetsHandler(deps.Renderer, deps.Tracker, logger).RegisterPublicRoutes(r.Engine.Group("/widgets"))
	handlers.NewStylesheetHandler(deps.Stylesheets, logger).RegisterPublicRoutes(r.Engine.Group("/api/brand"))

	// Admin routes (API key required)
	keys := middleware.NewAdminKeys(cfg.AdminAPIKeys)
	if keys.Len() == 0 {
		r.logger.Warn().Msg("no admin API keys configured, admin routes reject every request")
	}
	adminAuth := middleware.AdminAuthMiddleware(keys, logger)

	websites := r.Engine.Group("/api/websites")
	websites.Use(adminAuth)
	handlers.NewBrandingHandler(deps.Branding, logger).RegisterRoutes(websites)
	handlers.NewAssetsHandler(deps.Assets, deps.Branding, logger).RegisterRoutes(websites)
	if deps.Preview != nil {
		handlers.NewPreviewHandler(deps.Preview, logger).RegisterRoutes(websites)
	}

	agencies := r.Engine.Group("/api/agencies")
	agencies.Use(adminAuth)
	handlers.NewBrandTemplatesHandler(deps.Branding, logger).RegisterRoutes(agencies)

	r.logger.Info().Msg("API router initialized")
	return r, nil
}

// Package main is the entrypoint for the Plinth server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plinth-cms/plinth/internal/api"
	"github.com/plinth-cms/plinth/internal/api/handlers"
	"github.com/plinth-cms/plinth/internal/assets"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/cache"
	"github.com/plinth-cms/plinth/internal/config"
	"github.com/plinth-cms/plinth/internal/db"
	"github.com/plinth-cms/plinth/internal/maintenance"
	"github.com/plinth-cms/plinth/internal/metrics"
	"github.com/plinth-cms/plinth/internal/preview"
	"github.com/plinth-cms/plinth/internal/shutdown"
	"github.com/plinth-cms/plinth/internal/tracking"
	"github.com/plinth-cms/plinth/internal/widgets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadServerConfig()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	logger.Info().
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Str("environment", string(cfg.Environment)).
		Msg("Starting Plinth server")

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	lifecycle := shutdown.NewManager(shutdown.DefaultConfig(), logger)

	// Connect to database
	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	lifecycle.Register("database", func(context.Context) error {
		database.Close()
		return nil
	})

	if err := database.Migrate(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to run database migrations")
		database.Close()
		return 1
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewPoolCollector(database, logger),
	)
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		database.Close()
		return 1
	}

	// Stylesheet cache, shared through Redis when configured
	deps := api.Dependencies{DB: database, Readiness: lifecycle}
	var sheetCache cache.Cache = cache.NewMemory(cfg.StylesheetCacheTTL)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid REDIS_URL")
			database.Close()
			return 1
		}
		rdb := redis.NewClient(opts)
		lifecycle.Register("redis", func(context.Context) error { return rdb.Close() })

		sheetCache = cache.NewRedis(rdb, "plinth:stylesheet:", cfg.StylesheetCacheTTL)
		deps.Redis = rdb
		deps.Cache = redisPinger{rdb}
		logger.Info().Str("addr", opts.Addr).Msg("Using Redis for stylesheet cache and rate limits")
	}

	// Domain services
	brandingSvc := branding.NewService(database, database, logger)
	sheets := cache.NewStylesheets(brandingSvc, sheetCache, m, logger)
	// The cache listener runs first so the hub pushes freshly generated CSS.
	brandingSvc.OnChange(sheets)

	hubCfg := preview.DefaultConfig()
	hubCfg.AllowedOrigins = cfg.CORSOrigins
	hub := preview.NewHub(sheets, hubCfg, logger)
	hub.SetGauge(m)
	brandingSvc.OnChange(hub)
	hub.Start()
	lifecycle.Register("preview_hub", func(context.Context) error {
		hub.Stop()
		return nil
	})

	deps.Branding = brandingSvc
	deps.Stylesheets = sheets
	deps.Renderer = widgets.NewRenderer(database, brandingSvc, sheets, m, logger)
	deps.Tracker = tracking.NewService(database, m, logger)
	deps.Preview = hub
	if cfg.MetricsEnabled {
		deps.Metrics = m
	}

	if cfg.Assets.Enabled() {
		store, err := assets.NewS3Store(ctx, cfg.Assets, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize asset storage")
			_ = lifecycle.Shutdown(context.Background())
			return 1
		}
		deps.Assets = store
	} else {
		logger.Info().Msg("ASSETS_S3_BUCKET not set, brand asset uploads disabled")
	}

	// Retention cleanup for widget events
	if cfg.EventRetentionDays > 0 {
		retention := maintenance.NewRetentionScheduler(database, cfg.EventRetentionDays, logger)
		retention.SetRecorder(m)
		if err := retention.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start retention scheduler")
		} else {
			lifecycle.Register("retention", func(ctx context.Context) error {
				select {
				case <-retention.Stop().Done():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}
	}

	// Build API router
	routerCfg := api.Config{
		AllowedOrigins:    cfg.CORSOrigins,
		Environment:       cfg.Environment,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		AdminAPIKeys:      cfg.AdminAPIKeys,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		Version:           Version,
		Commit:            Commit,
		BuildDate:         BuildDate,
	}
	router, err := api.NewRouter(routerCfg, deps, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		_ = lifecycle.Shutdown(context.Background())
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	lifecycle.Register("http_server", srv.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server")
		return lifecycle.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}

// redisPinger adapts a Redis client to the health checker.
type redisPinger struct {
	client redis.UniversalClient
}

var _ handlers.CacheHealthChecker = redisPinger{}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

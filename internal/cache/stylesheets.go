package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/plinth-cms/plinth/internal/stylesheet"
	"github.com/rs/zerolog"
)

// BrandingLoader loads the records a stylesheet is generated from.
type BrandingLoader interface {
	Pair(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, *models.WidgetBrandingConfig, error)
}

// HitRecorder observes cache lookups.
type HitRecorder interface {
	RecordCacheHit(hit bool)
}

// Stylesheets returns generated stylesheets per website, generating and
// caching on a miss. Register it as a branding change listener so updates
// invalidate the cached copy.
type Stylesheets struct {
	loader  BrandingLoader
	cache   Cache
	metrics HitRecorder
	logger  zerolog.Logger
}

// NewStylesheets creates a Stylesheets provider. metrics may be nil.
func NewStylesheets(loader BrandingLoader, cache Cache, metrics HitRecorder, logger zerolog.Logger) *Stylesheets {
	return &Stylesheets{
		loader:  loader,
		cache:   cache,
		metrics: metrics,
		logger:  logger.With().Str("component", "stylesheet_cache").Logger(),
	}
}

// Get returns the website's stylesheet. Cache failures are logged and fall
// through to generation.
func (s *Stylesheets) Get(ctx context.Context, websiteID uuid.UUID) (*stylesheet.Stylesheet, error) {
	key := websiteID.String()

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("website_id", key).Msg("stylesheet cache read failed")
	}
	s.record(cached != nil)
	if cached != nil {
		return cached, nil
	}

	brand, widget, err := s.loader.Pair(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("load branding: %w", err)
	}

	sheet := stylesheet.Generate(brand, widget)
	if err := s.cache.Set(ctx, key, sheet); err != nil {
		s.logger.Warn().Err(err).Str("website_id", key).Msg("stylesheet cache write failed")
	}
	return sheet, nil
}

// BrandingChanged drops the cached stylesheet for websiteID.
func (s *Stylesheets) BrandingChanged(ctx context.Context, websiteID uuid.UUID) {
	if err := s.cache.Delete(ctx, websiteID.String()); err != nil {
		s.logger.Error().Err(err).Str("website_id", websiteID.String()).Msg("failed to invalidate stylesheet")
	}
}

func (s *Stylesheets) record(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(hit)
	}
}

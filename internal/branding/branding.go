// Package branding provides white-label branding logic for websites: brand
// configuration, widget branding and agency brand templates.
package branding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/rs/zerolog"
)

// Store defines the persistence interface for branding operations.
// Getters return (nil, nil) when no record exists.
type Store interface {
	GetWidgetBranding(ctx context.Context, websiteID uuid.UUID) (*models.WidgetBrandingConfig, error)
	UpsertWidgetBranding(ctx context.Context, cfg *models.WidgetBrandingConfig) error
	GetBrandConfiguration(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, error)
	UpsertBrandConfiguration(ctx context.Context, cfg *models.BrandConfiguration) error
}

// TemplateStore defines the persistence interface for agency brand templates.
type TemplateStore interface {
	CreateBrandTemplate(ctx context.Context, t *models.AgencyBrandTemplate) error
	GetBrandTemplate(ctx context.Context, id uuid.UUID) (*models.AgencyBrandTemplate, error)
	ListBrandTemplates(ctx context.Context, agencyID uuid.UUID) ([]*models.AgencyBrandTemplate, error)
	UpdateBrandTemplate(ctx context.Context, t *models.AgencyBrandTemplate) error
	DeleteBrandTemplate(ctx context.Context, id uuid.UUID) error
}

// ChangeListener is notified after a website's branding has been persisted.
type ChangeListener interface {
	BrandingChanged(ctx context.Context, websiteID uuid.UUID)
}

// ChangeListenerFunc adapts a function to ChangeListener.
type ChangeListenerFunc func(ctx context.Context, websiteID uuid.UUID)

// BrandingChanged calls f.
func (f ChangeListenerFunc) BrandingChanged(ctx context.Context, websiteID uuid.UUID) {
	f(ctx, websiteID)
}

// Service implements branding reads, updates and resets.
type Service struct {
	store     Store
	templates TemplateStore
	listeners []ChangeListener
	logger    zerolog.Logger
}

// NewService creates a new branding Service.
func NewService(store Store, templates TemplateStore, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		templates: templates,
		logger:    logger.With().Str("component", "branding").Logger(),
	}
}

// OnChange registers a listener invoked after every successful write.
func (s *Service) OnChange(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

func (s *Service) notify(ctx context.Context, websiteID uuid.UUID) {
	for _, l := range s.listeners {
		l.BrandingChanged(ctx, websiteID)
	}
}

// WidgetBranding returns the website's widget branding, creating and
// persisting the defaults on first read.
func (s *Service) WidgetBranding(ctx context.Context, websiteID uuid.UUID) (*models.WidgetBrandingConfig, error) {
	cfg, err := s.store.GetWidgetBranding(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("load widget branding: %w", err)
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = models.NewWidgetBrandingConfig(websiteID)
	if err := s.store.UpsertWidgetBranding(ctx, cfg); err != nil {
		return nil, fmt.Errorf("create default widget branding: %w", err)
	}
	s.logger.Debug().Str("website_id", websiteID.String()).Msg("created default widget branding")
	return cfg, nil
}

// UpdateWidgetBranding validates req and applies it. Nothing is written when
// validation fails.
func (s *Service) UpdateWidgetBranding(ctx context.Context, websiteID uuid.UUID, req *UpdateWidgetBrandingRequest) (*models.WidgetBrandingConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.WidgetBranding(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(cfg)
	cfg.UpdatedAt = time.Now()
	if err := s.store.UpsertWidgetBranding(ctx, cfg); err != nil {
		return nil, fmt.Errorf("update widget branding: %w", err)
	}

	s.logger.Info().Str("website_id", websiteID.String()).Msg("widget branding updated")
	s.notify(ctx, websiteID)
	return cfg, nil
}

// ResetWidgetBranding restores the website's widget branding to defaults.
func (s *Service) ResetWidgetBranding(ctx context.Context, websiteID uuid.UUID) (*models.WidgetBrandingConfig, error) {
	cfg, err := s.WidgetBranding(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	cfg.ResetDefaults()
	if err := s.store.UpsertWidgetBranding(ctx, cfg); err != nil {
		return nil, fmt.Errorf("reset widget branding: %w", err)
	}

	s.logger.Info().Str("website_id", websiteID.String()).Msg("widget branding reset to defaults")
	s.notify(ctx, websiteID)
	return cfg, nil
}

// BrandConfiguration returns the website's brand configuration, creating and
// persisting the defaults on first read.
func (s *Service) BrandConfiguration(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, error) {
	cfg, err := s.store.GetBrandConfiguration(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("load brand configuration: %w", err)
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = models.NewBrandConfiguration(websiteID)
	if err := s.store.UpsertBrandConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("create default brand configuration: %w", err)
	}
	s.logger.Debug().Str("website_id", websiteID.String()).Msg("created default brand configuration")
	return cfg, nil
}

// UpdateBrandConfiguration validates req and applies it. Nothing is written
// when validation fails.
func (s *Service) UpdateBrandConfiguration(ctx context.Context, websiteID uuid.UUID, req *UpdateBrandRequest) (*models.BrandConfiguration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, err := s.BrandConfiguration(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(cfg)
	cfg.UpdatedAt = time.Now()
	if err := s.store.UpsertBrandConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("update brand configuration: %w", err)
	}

	s.logger.Info().Str("website_id", websiteID.String()).Msg("brand configuration updated")
	s.notify(ctx, websiteID)
	return cfg, nil
}

// ResetBrandConfiguration restores the website's brand configuration to defaults.
func (s *Service) ResetBrandConfiguration(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, error) {
	cfg, err := s.BrandConfiguration(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	cfg.ResetDefaults()
	if err := s.store.UpsertBrandConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("reset brand configuration: %w", err)
	}

	s.logger.Info().Str("website_id", websiteID.String()).Msg("brand configuration reset to defaults")
	s.notify(ctx, websiteID)
	return cfg, nil
}

// SetAssetURL records an uploaded logo or favicon on the brand configuration.
func (s *Service) SetAssetURL(ctx context.Context, websiteID uuid.UUID, kind AssetKind, assetURL string) (*models.BrandConfiguration, error) {
	cfg, err := s.BrandConfiguration(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case AssetLogo:
		cfg.LogoURL = assetURL
	case AssetFavicon:
		cfg.FaviconURL = assetURL
		cfg.WhiteLabel.CustomFavicon = true
	default:
		return nil, apierr.Validation("invalid asset kind", apierr.FieldError{Field: "kind", Message: "must be one of [logo favicon]"})
	}

	cfg.UpdatedAt = time.Now()
	if err := s.store.UpsertBrandConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("record %s url: %w", kind, err)
	}
	s.notify(ctx, websiteID)
	return cfg, nil
}

// Pair loads both records needed to generate a website's stylesheet.
func (s *Service) Pair(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, *models.WidgetBrandingConfig, error) {
	brand, err := s.BrandConfiguration(ctx, websiteID)
	if err != nil {
		return nil, nil, err
	}
	widget, err := s.WidgetBranding(ctx, websiteID)
	if err != nil {
		return nil, nil, err
	}
	return brand, widget, nil
}

// AssetKind names an uploadable brand asset.
type AssetKind string

const (
	AssetLogo    AssetKind = "logo"
	AssetFavicon AssetKind = "favicon"
)

// IsValid reports whether k is a known asset kind.
func (k AssetKind) IsValid() bool {
	return k == AssetLogo || k == AssetFavicon
}

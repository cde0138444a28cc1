package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/plinth-cms/plinth/internal/models"
)

// Widget branding methods

// GetWidgetBranding returns the website's widget branding, or nil when none exists.
func (db *DB) GetWidgetBranding(ctx context.Context, websiteID uuid.UUID) (*models.WidgetBrandingConfig, error) {
	var c models.WidgetBrandingConfig
	var theme, shadow, animation, position string
	err := db.Pool.QueryRow(ctx, `
		SELECT id, website_id, theme, border_radius, shadow_level, animation, position,
		       show_branding, custom_css, mobile_optimized, rtl_support, created_at, updated_at
		FROM widget_branding_configs
		WHERE website_id = $1
	`, websiteID).Scan(
		&c.ID, &c.WebsiteID, &theme, &c.BorderRadius, &shadow, &animation, &position,
		&c.ShowBranding, &c.CustomCSS, &c.MobileOptimized, &c.RTLSupport, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get widget branding: %w", err)
	}

	c.Theme = models.WidgetTheme(theme)
	c.ShadowLevel = models.ShadowLevel(shadow)
	c.Animation = models.WidgetAnimation(animation)
	c.Position = models.WidgetPosition(position)
	return &c, nil
}

// UpsertWidgetBranding creates or replaces the website's widget branding.
func (db *DB) UpsertWidgetBranding(ctx context.Context, c *models.WidgetBrandingConfig) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO widget_branding_configs (id, website_id, theme, border_radius, shadow_level,
		                                     animation, position, show_branding, custom_css,
		                                     mobile_optimized, rtl_support, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (website_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			border_radius = EXCLUDED.border_radius,
			shadow_level = EXCLUDED.shadow_level,
			animation = EXCLUDED.animation,
			position = EXCLUDED.position,
			show_branding = EXCLUDED.show_branding,
			custom_css = EXCLUDED.custom_css,
			mobile_optimized = EXCLUDED.mobile_optimized,
			rtl_support = EXCLUDED.rtl_support,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.WebsiteID, string(c.Theme), c.BorderRadius, string(c.ShadowLevel),
		string(c.Animation), string(c.Position), c.ShowBranding, c.CustomCSS,
		c.MobileOptimized, c.RTLSupport, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert widget branding: %w", err)
	}
	return nil
}

// Brand configuration methods

// GetBrandConfiguration returns the website's brand configuration, or nil when none exists.
func (db *DB) GetBrandConfiguration(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, error) {
	var c models.BrandConfiguration
	var colorsJSON, fontsJSON, emailJSON []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT id, website_id, colors, fonts, logo_url, favicon_url, custom_domain,
		       domain_verified, ssl_enabled, email, hide_platform_branding, custom_favicon,
		       custom_css, created_at, updated_at
		FROM brand_configurations
		WHERE website_id = $1
	`, websiteID).Scan(
		&c.ID, &c.WebsiteID, &colorsJSON, &fontsJSON, &c.LogoURL, &c.FaviconURL,
		&c.CustomDomain.Domain, &c.CustomDomain.Verified, &c.CustomDomain.SSLEnabled,
		&emailJSON, &c.WhiteLabel.HidePlatformBranding, &c.WhiteLabel.CustomFavicon,
		&c.CustomCSS, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get brand configuration: %w", err)
	}

	if err := json.Unmarshal(colorsJSON, &c.Colors); err != nil {
		return nil, fmt.Errorf("parse brand colors: %w", err)
	}
	if err := json.Unmarshal(fontsJSON, &c.Fonts); err != nil {
		return nil, fmt.Errorf("parse brand fonts: %w", err)
	}
	if err := json.Unmarshal(emailJSON, &c.Email); err != nil {
		return nil, fmt.Errorf("parse email branding: %w", err)
	}
	return &c, nil
}

// UpsertBrandConfiguration creates or replaces the website's brand configuration.
func (db *DB) UpsertBrandConfiguration(ctx context.Context, c *models.BrandConfiguration) error {
	colorsJSON, err := json.Marshal(c.Colors)
	if err != nil {
		return fmt.Errorf("marshal brand colors: %w", err)
	}
	fontsJSON, err := json.Marshal(c.Fonts)
	if err != nil {
		return fmt.Errorf("marshal brand fonts: %w", err)
	}
	emailJSON, err := json.Marshal(c.Email)
	if err != nil {
		return fmt.Errorf("marshal email branding: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO brand_configurations (id, website_id, colors, fonts, logo_url, favicon_url,
		                                  custom_domain, domain_verified, ssl_enabled, email,
		                                  hide_platform_branding, custom_favicon, custom_css,
		                                  created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (website_id) DO UPDATE SET
			colors = EXCLUDED.colors,
			fonts = EXCLUDED.fonts,
			logo_url = EXCLUDED.logo_url,
			favicon_url = EXCLUDED.favicon_url,
			custom_domain = EXCLUDED.custom_domain,
			domain_verified = EXCLUDED.domain_verified,
			ssl_enabled = EXCLUDED.ssl_enabled,
			email = EXCLUDED.email,
			hide_platform_branding = EXCLUDED.hide_platform_branding,
			custom_favicon = EXCLUDED.custom_favicon,
			custom_css = EXCLUDED.custom_css,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.WebsiteID, colorsJSON, fontsJSON, c.LogoURL, c.FaviconURL,
		c.CustomDomain.Domain, c.CustomDomain.Verified, c.CustomDomain.SSLEnabled, emailJSON,
		c.WhiteLabel.HidePlatformBranding, c.WhiteLabel.CustomFavicon, c.CustomCSS,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert brand configuration: %w", err)
	}
	return nil
}

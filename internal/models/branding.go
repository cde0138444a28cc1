package models

import (
	"time"

	"github.com/google/uuid"
)

// WidgetTheme selects the color scheme applied to rendered widgets.
type WidgetTheme string

const (
	WidgetThemeLight WidgetTheme = "light"
	WidgetThemeDark  WidgetTheme = "dark"
	// WidgetThemeAuto follows the visitor's prefers-color-scheme setting.
	WidgetThemeAuto WidgetTheme = "auto"
)

// ShadowLevel selects one of the fixed box-shadow presets.
type ShadowLevel string

const (
	ShadowNone ShadowLevel = "none"
	ShadowSM   ShadowLevel = "sm"
	ShadowMD   ShadowLevel = "md"
	ShadowLG   ShadowLevel = "lg"
	ShadowXL   ShadowLevel = "xl"
)

// WidgetAnimation selects the entrance animation for widget items.
type WidgetAnimation string

const (
	AnimationNone  WidgetAnimation = "none"
	AnimationFade  WidgetAnimation = "fade"
	AnimationSlide WidgetAnimation = "slide"
	AnimationScale WidgetAnimation = "scale"
)

// WidgetPosition controls where a widget is placed relative to the host page.
type WidgetPosition string

const (
	PositionInline      WidgetPosition = "inline"
	PositionBottomRight WidgetPosition = "bottom-right"
	PositionBottomLeft  WidgetPosition = "bottom-left"
	PositionTopRight    WidgetPosition = "top-right"
	PositionTopLeft     WidgetPosition = "top-left"
)

// Limits enforced on branding input.
const (
	MinBorderRadius    = 0
	MaxBorderRadius    = 50
	MaxCustomCSSLength = 10000
)

// WidgetBrandingConfig holds widget-specific presentation settings for a website,
// layered on top of its BrandConfiguration.
type WidgetBrandingConfig struct {
	ID              uuid.UUID       `json:"id"`
	WebsiteID       uuid.UUID       `json:"website_id"`
	Theme           WidgetTheme     `json:"theme"`
	BorderRadius    int             `json:"border_radius"`
	ShadowLevel     ShadowLevel     `json:"shadow_level"`
	Animation       WidgetAnimation `json:"animation"`
	Position        WidgetPosition  `json:"position"`
	ShowBranding    bool            `json:"show_branding"`
	CustomCSS       string          `json:"custom_css"`
	MobileOptimized bool            `json:"mobile_optimized"`
	RTLSupport      bool            `json:"rtl_support"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewWidgetBrandingConfig creates a WidgetBrandingConfig with defaults.
func NewWidgetBrandingConfig(websiteID uuid.UUID) *WidgetBrandingConfig {
	now := time.Now()
	return &WidgetBrandingConfig{
		ID:              uuid.New(),
		WebsiteID:       websiteID,
		Theme:           WidgetThemeLight,
		BorderRadius:    8,
		ShadowLevel:     ShadowMD,
		Animation:       AnimationFade,
		Position:        PositionInline,
		ShowBranding:    true,
		MobileOptimized: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ResetDefaults restores every presentation field to its default while keeping
// the record identity.
func (w *WidgetBrandingConfig) ResetDefaults() {
	d := NewWidgetBrandingConfig(w.WebsiteID)
	d.ID = w.ID
	d.CreatedAt = w.CreatedAt
	*w = *d
}

// BrandColors is a website's color palette. Every value is a #RRGGBB string.
type BrandColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// BrandFonts holds the CSS font-family stacks used by generated stylesheets.
type BrandFonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// EmailBranding customizes outgoing email for a website.
type EmailBranding struct {
	FromName    string `json:"from_name"`
	FromAddress string `json:"from_address"`
	ReplyTo     string `json:"reply_to"`
	Footer      string `json:"footer"`
}

// CustomDomain describes a website's vanity domain and its verification state.
type CustomDomain struct {
	Domain     string `json:"domain"`
	Verified   bool   `json:"verified"`
	SSLEnabled bool   `json:"ssl_enabled"`
}

// WhiteLabel flags control removal of the platform's own branding.
type WhiteLabel struct {
	HidePlatformBranding bool `json:"hide_platform_branding"`
	CustomFavicon        bool `json:"custom_favicon"`
}

// BrandConfiguration is the color, font, domain and email customization record
// for a website.
type BrandConfiguration struct {
	ID           uuid.UUID     `json:"id"`
	WebsiteID    uuid.UUID     `json:"website_id"`
	Colors       BrandColors   `json:"colors"`
	Fonts        BrandFonts    `json:"fonts"`
	LogoURL      string        `json:"logo_url"`
	FaviconURL   string        `json:"favicon_url"`
	CustomDomain CustomDomain  `json:"custom_domain"`
	Email        EmailBranding `json:"email"`
	WhiteLabel   WhiteLabel    `json:"white_label"`
	CustomCSS    string        `json:"custom_css"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Default palette and font stack for new brand configurations.
const (
	DefaultPrimaryColor    = "#3B82F6"
	DefaultSecondaryColor  = "#64748B"
	DefaultAccentColor     = "#F59E0B"
	DefaultBackgroundColor = "#FFFFFF"
	DefaultTextColor       = "#1F2937"
	DefaultFontFamily      = "Inter, system-ui, sans-serif"
)

// DefaultBrandColors returns the platform palette.
func DefaultBrandColors() BrandColors {
	return BrandColors{
		Primary:    DefaultPrimaryColor,
		Secondary:  DefaultSecondaryColor,
		Accent:     DefaultAccentColor,
		Background: DefaultBackgroundColor,
		Text:       DefaultTextColor,
	}
}

// DefaultBrandFonts returns the platform font stacks.
func DefaultBrandFonts() BrandFonts {
	return BrandFonts{Heading: DefaultFontFamily, Body: DefaultFontFamily}
}

// NewBrandConfiguration creates a BrandConfiguration with defaults.
func NewBrandConfiguration(websiteID uuid.UUID) *BrandConfiguration {
	now := time.Now()
	return &BrandConfiguration{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		Colors:    DefaultBrandColors(),
		Fonts:     DefaultBrandFonts(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ResetDefaults restores every brand field to its default while keeping the
// record identity.
func (b *BrandConfiguration) ResetDefaults() {
	d := NewBrandConfiguration(b.WebsiteID)
	d.ID = b.ID
	d.CreatedAt = b.CreatedAt
	*b = *d
}

// AgencyBrandTemplate is a named, reusable bundle of brand fields owned by an
// agency account. Applying it copies its fields into a website's configuration.
type AgencyBrandTemplate struct {
	ID          uuid.UUID   `json:"id"`
	AgencyID    uuid.UUID   `json:"agency_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Colors      BrandColors `json:"colors"`
	Fonts       BrandFonts  `json:"fonts"`
	CustomCSS   string      `json:"custom_css"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewAgencyBrandTemplate creates a template seeded with the default palette.
func NewAgencyBrandTemplate(agencyID uuid.UUID, name string) *AgencyBrandTemplate {
	now := time.Now()
	return &AgencyBrandTemplate{
		ID:        uuid.New(),
		AgencyID:  agencyID,
		Name:      name,
		Colors:    DefaultBrandColors(),
		Fonts:     DefaultBrandFonts(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyTo copies the template's fields into cfg. The copy is one-way; later
// edits to the template do not propagate.
func (t *AgencyBrandTemplate) ApplyTo(cfg *BrandConfiguration) {
	cfg.Colors = t.Colors
	cfg.Fonts = t.Fonts
	cfg.CustomCSS = t.CustomCSS
	cfg.UpdatedAt = time.Now()
}

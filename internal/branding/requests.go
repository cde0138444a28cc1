package branding

import (
	"strings"

	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/models"
)

// UpdateWidgetBrandingRequest is a partial update of a WidgetBrandingConfig.
// Nil fields are left unchanged.
type UpdateWidgetBrandingRequest struct {
	Theme           *models.WidgetTheme     `json:"theme,omitempty" validate:"omitempty,oneof=light dark auto"`
	BorderRadius    *int                    `json:"border_radius,omitempty" validate:"omitempty,min=0,max=50"`
	ShadowLevel     *models.ShadowLevel     `json:"shadow_level,omitempty" validate:"omitempty,oneof=none sm md lg xl"`
	Animation       *models.WidgetAnimation `json:"animation,omitempty" validate:"omitempty,oneof=none fade slide scale"`
	Position        *models.WidgetPosition  `json:"position,omitempty" validate:"omitempty,oneof=inline bottom-right bottom-left top-right top-left"`
	ShowBranding    *bool                   `json:"show_branding,omitempty"`
	CustomCSS       *string                 `json:"custom_css,omitempty" validate:"omitempty,max=10000"`
	MobileOptimized *bool                   `json:"mobile_optimized,omitempty"`
	RTLSupport      *bool                   `json:"rtl_support,omitempty"`
}

// Validate checks ranges and enumerations.
func (r *UpdateWidgetBrandingRequest) Validate() error {
	return validateStruct(r)
}

// ApplyTo copies every non-nil field into cfg.
func (r *UpdateWidgetBrandingRequest) ApplyTo(cfg *models.WidgetBrandingConfig) {
	if r.Theme != nil {
		cfg.Theme = *r.Theme
	}
	if r.BorderRadius != nil {
		cfg.BorderRadius = *r.BorderRadius
	}
	if r.ShadowLevel != nil {
		cfg.ShadowLevel = *r.ShadowLevel
	}
	if r.Animation != nil {
		cfg.Animation = *r.Animation
	}
	if r.Position != nil {
		cfg.Position = *r.Position
	}
	if r.ShowBranding != nil {
		cfg.ShowBranding = *r.ShowBranding
	}
	if r.CustomCSS != nil {
		cfg.CustomCSS = *r.CustomCSS
	}
	if r.MobileOptimized != nil {
		cfg.MobileOptimized = *r.MobileOptimized
	}
	if r.RTLSupport != nil {
		cfg.RTLSupport = *r.RTLSupport
	}
}

// ColorsPatch is a partial update of a brand palette.
type ColorsPatch struct {
	Primary    *string `json:"primary,omitempty" validate:"omitempty,brandcolor"`
	Secondary  *string `json:"secondary,omitempty" validate:"omitempty,brandcolor"`
	Accent     *string `json:"accent,omitempty" validate:"omitempty,brandcolor"`
	Background *string `json:"background,omitempty" validate:"omitempty,brandcolor"`
	Text       *string `json:"text,omitempty" validate:"omitempty,brandcolor"`
}

func (p *ColorsPatch) applyTo(c *models.BrandColors) {
	if p == nil {
		return
	}
	setString(&c.Primary, p.Primary)
	setString(&c.Secondary, p.Secondary)
	setString(&c.Accent, p.Accent)
	setString(&c.Background, p.Background)
	setString(&c.Text, p.Text)
}

// FontsPatch is a partial update of brand font stacks.
type FontsPatch struct {
	Heading *string `json:"heading,omitempty" validate:"omitempty,min=1,max=200"`
	Body    *string `json:"body,omitempty" validate:"omitempty,min=1,max=200"`
}

func (p *FontsPatch) applyTo(f *models.BrandFonts) {
	if p == nil {
		return
	}
	setString(&f.Heading, p.Heading)
	setString(&f.Body, p.Body)
}

// EmailPatch is a partial update of email branding.
type EmailPatch struct {
	FromName    *string `json:"from_name,omitempty" validate:"omitempty,max=100"`
	FromAddress *string `json:"from_address,omitempty"`
	ReplyTo     *string `json:"reply_to,omitempty"`
	Footer      *string `json:"footer,omitempty" validate:"omitempty,max=2000"`
}

func (p *EmailPatch) applyTo(e *models.EmailBranding) {
	if p == nil {
		return
	}
	setString(&e.FromName, p.FromName)
	setString(&e.FromAddress, p.FromAddress)
	setString(&e.ReplyTo, p.ReplyTo)
	setString(&e.Footer, p.Footer)
}

// WhiteLabelPatch is a partial update of white-label flags.
type WhiteLabelPatch struct {
	HidePlatformBranding *bool `json:"hide_platform_branding,omitempty"`
	CustomFavicon        *bool `json:"custom_favicon,omitempty"`
}

// UpdateBrandRequest is a partial update of a BrandConfiguration.
type UpdateBrandRequest struct {
	Colors       *ColorsPatch     `json:"colors,omitempty"`
	Fonts        *FontsPatch      `json:"fonts,omitempty"`
	LogoURL      *string          `json:"logo_url,omitempty"`
	FaviconURL   *string          `json:"favicon_url,omitempty"`
	CustomDomain *string          `json:"custom_domain,omitempty"`
	Email        *EmailPatch      `json:"email,omitempty"`
	WhiteLabel   *WhiteLabelPatch `json:"white_label,omitempty"`
	CustomCSS    *string          `json:"custom_css,omitempty" validate:"omitempty,max=10000"`
}

// Validate checks colors, URLs, addresses and lengths.
func (r *UpdateBrandRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}

	var fields []apierr.FieldError
	check := func(name string, v *string, tag string) {
		if v == nil || *v == "" {
			return
		}
		if err := Validator().Var(*v, tag); err != nil {
			fields = append(fields, apierr.FieldError{Field: name, Message: "must be a valid " + tagLabel(tag)})
		}
	}
	if r.Email != nil {
		check("email.from_address", r.Email.FromAddress, "email")
		check("email.reply_to", r.Email.ReplyTo, "email")
	}
	if r.CustomDomain != nil {
		check("custom_domain", r.CustomDomain, "fqdn")
	}
	urls := []struct {
		name  string
		value *string
	}{{"logo_url", r.LogoURL}, {"favicon_url", r.FaviconURL}}
	for _, u := range urls {
		if u.value == nil {
			continue
		}
		if err := ValidateURL(*u.value); err != nil {
			fields = append(fields, apierr.FieldError{Field: u.name, Message: err.Error()})
		}
	}
	if len(fields) > 0 {
		return apierr.Validation("invalid request", fields...)
	}
	return nil
}

// ApplyTo copies every non-nil field into cfg. Changing the custom domain
// clears its verification and SSL flags.
func (r *UpdateBrandRequest) ApplyTo(cfg *models.BrandConfiguration) {
	r.Colors.applyTo(&cfg.Colors)
	r.Fonts.applyTo(&cfg.Fonts)
	r.Email.applyTo(&cfg.Email)
	setString(&cfg.LogoURL, r.LogoURL)
	setString(&cfg.FaviconURL, r.FaviconURL)
	setString(&cfg.CustomCSS, r.CustomCSS)

	if r.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*r.CustomDomain))
		if domain != cfg.CustomDomain.Domain {
			cfg.CustomDomain = models.CustomDomain{Domain: domain}
		}
	}
	if r.WhiteLabel != nil {
		if r.WhiteLabel.HidePlatformBranding != nil {
			cfg.WhiteLabel.HidePlatformBranding = *r.WhiteLabel.HidePlatformBranding
		}
		if r.WhiteLabel.CustomFavicon != nil {
			cfg.WhiteLabel.CustomFavicon = *r.WhiteLabel.CustomFavicon
		}
	}
}

// TemplateRequest creates or replaces an agency brand template.
type TemplateRequest struct {
	Name        string      `json:"name" validate:"required,min=1,max=100"`
	Description string      `json:"description" validate:"max=500"`
	Colors      ColorsPatch `json:"colors"`
	Fonts       FontsPatch  `json:"fonts"`
	CustomCSS   string      `json:"custom_css" validate:"max=10000"`
}

// Validate checks the template name, colors and CSS length.
func (r *TemplateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validateStruct(r)
}

// ApplyTo copies the request into t, keeping defaults for omitted colors and fonts.
func (r *TemplateRequest) ApplyTo(t *models.AgencyBrandTemplate) {
	t.Name = r.Name
	t.Description = r.Description
	r.Colors.applyTo(&t.Colors)
	r.Fonts.applyTo(&t.Fonts)
	t.CustomCSS = r.CustomCSS
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func tagLabel(tag string) string {
	switch tag {
	case "fqdn":
		return "domain name"
	case "email":
		return "email address"
	default:
		return tag
	}
}

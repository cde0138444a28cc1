// Package stylesheet generates the CSS served to embedded widgets from a
// website's brand configuration and widget branding.
package stylesheet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/plinth-cms/plinth/internal/models"
)

// Variable is a single CSS custom property emitted in the :root block.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Stylesheet is the output of Generate.
type Stylesheet struct {
	CSS       string     `json:"css"`
	Variables []Variable `json:"variables"`
	// ETag is a quoted strong validator derived from CSS.
	ETag string `json:"etag"`
}

// VariableMap returns the custom properties keyed by name.
func (s *Stylesheet) VariableMap() map[string]string {
	m := make(map[string]string, len(s.Variables))
	for _, v := range s.Variables {
		m[v.Name] = v.Value
	}
	return m
}

// Shadow presets keyed by level.
var shadows = map[models.ShadowLevel]string{
	models.ShadowNone: "none",
	models.ShadowSM:   "0 1px 2px 0 rgba(0, 0, 0, 0.05)",
	models.ShadowMD:   "0 4px 6px -1px rgba(0, 0, 0, 0.1), 0 2px 4px -1px rgba(0, 0, 0, 0.06)",
	models.ShadowLG:   "0 10px 15px -3px rgba(0, 0, 0, 0.1), 0 4px 6px -2px rgba(0, 0, 0, 0.05)",
	models.ShadowXL:   "0 20px 25px -5px rgba(0, 0, 0, 0.1), 0 10px 10px -5px rgba(0, 0, 0, 0.04)",
}

// Shadow returns the box-shadow value for level. Unknown levels fall back to md.
func Shadow(level models.ShadowLevel) string {
	if v, ok := shadows[level]; ok {
		return v
	}
	return shadows[models.ShadowMD]
}

// AnimationDuration returns the duration used by entrance animations.
func AnimationDuration(a models.WidgetAnimation) string {
	if a == models.AnimationNone {
		return "0s"
	}
	return "0.3s"
}

// Generate produces the stylesheet for a brand and widget branding pair.
// Identical input always yields byte-identical output.
func Generate(brand *models.BrandConfiguration, widget *models.WidgetBrandingConfig) *Stylesheet {
	vars := variables(brand, widget)

	var b strings.Builder
	writeRoot(&b, vars)
	b.WriteString(baseCSS)
	writePosition(&b, widget.Position)

	switch widget.Theme {
	case models.WidgetThemeDark:
		b.WriteString(darkCSS)
	case models.WidgetThemeAuto:
		b.WriteString("@media (prefers-color-scheme: dark) {\n")
		b.WriteString(indent(darkCSS))
		b.WriteString("}\n")
	}

	if widget.MobileOptimized {
		b.WriteString(responsiveCSS)
	}
	if widget.RTLSupport {
		b.WriteString(rtlCSS)
	}
	if kf, ok := keyframes[widget.Animation]; ok {
		b.WriteString(kf)
	}
	if !widget.ShowBranding || brand.WhiteLabel.HidePlatformBranding {
		b.WriteString(hideBrandingCSS)
	}

	for _, custom := range []string{brand.CustomCSS, widget.CustomCSS} {
		if custom == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(EscapeCustomCSS(custom))
		b.WriteString("\n")
	}

	css := b.String()
	sum := sha256.Sum256([]byte(css))
	return &Stylesheet{
		CSS:       css,
		Variables: vars,
		ETag:      `"` + hex.EncodeToString(sum[:16]) + `"`,
	}
}

// EscapeCustomCSS rewrites "</" to "<\/" so the CSS cannot close an inline
// style element. The CSS is otherwise left untouched.
func EscapeCustomCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

func variables(brand *models.BrandConfiguration, widget *models.WidgetBrandingConfig) []Variable {
	return []Variable{
		{"--plinth-color-primary", brand.Colors.Primary},
		{"--plinth-color-secondary", brand.Colors.Secondary},
		{"--plinth-color-accent", brand.Colors.Accent},
		{"--plinth-color-background", brand.Colors.Background},
		{"--plinth-color-text", brand.Colors.Text},
		{"--plinth-font-heading", brand.Fonts.Heading},
		{"--plinth-font-body", brand.Fonts.Body},
		{"--plinth-border-radius", fmt.Sprintf("%dpx", widget.BorderRadius)},
		{"--plinth-shadow", Shadow(widget.ShadowLevel)},
		{"--plinth-animation-duration", AnimationDuration(widget.Animation)},
	}
}

func writeRoot(b *strings.Builder, vars []Variable) {
	b.WriteString(":root {\n")
	for _, v := range vars {
		fmt.Fprintf(b, "  %s: %s;\n", v.Name, v.Value)
	}
	b.WriteString("}\n")
}

func writePosition(b *strings.Builder, p models.WidgetPosition) {
	var vertical, horizontal string
	switch p {
	case models.PositionBottomRight:
		vertical, horizontal = "bottom", "right"
	case models.PositionBottomLeft:
		vertical, horizontal = "bottom", "left"
	case models.PositionTopRight:
		vertical, horizontal = "top", "right"
	case models.PositionTopLeft:
		vertical, horizontal = "top", "left"
	default:
		return
	}
	fmt.Fprintf(b, ".plinth-widget {\n  position: fixed;\n  %s: 20px;\n  %s: 20px;\n  max-width: 380px;\n  max-height: 80vh;\n  overflow-y: auto;\n  z-index: 2147483000;\n}\n", vertical, horizontal)
}

func indent(css string) string {
	lines := strings.Split(strings.TrimSuffix(css, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

package embed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Defaults.
const (
	DefaultAPIURL         = "http://localhost:8080"
	DefaultSearchDebounce = 500 * time.Millisecond
)

// Config configures one widget instance.
type Config struct {
	WidgetID    string
	WebsiteID   string
	ContainerID string

	APIURL       string
	Theme        string
	Layout       string
	ItemsPerPage int
	OpenInNewTab bool
	Category     string
	Tags         []string

	// DiscardStale drops render responses that arrive after a newer request
	// was issued. Off by default: every response is applied in arrival order.
	DiscardStale bool
	// SearchDebounce is the quiet period before a search input triggers a
	// render (default 500ms).
	SearchDebounce time.Duration
}

func (c Config) withDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = DefaultSearchDebounce
	}
	return c
}

// Validate checks the fields every instance needs.
func (c Config) Validate() error {
	var missing []string
	if c.WidgetID == "" {
		missing = append(missing, "widget id")
	}
	if c.WebsiteID == "" {
		missing = append(missing, "website id")
	}
	if c.ContainerID == "" {
		missing = append(missing, "container id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ConfigFromElement reads an auto-init element's data attributes. ok is
// false when either required id attribute is absent or blank.
func ConfigFromElement(el Element, base Config) (cfg Config, ok bool) {
	widgetID, _ := el.Attr(AttrWidgetID)
	websiteID, _ := el.Attr(AttrWebsiteID)
	widgetID, websiteID = strings.TrimSpace(widgetID), strings.TrimSpace(websiteID)
	if widgetID == "" || websiteID == "" {
		return Config{}, false
	}

	cfg = base
	cfg.WidgetID = widgetID
	cfg.WebsiteID = websiteID
	cfg.ContainerID = el.ID()

	if v, ok := el.Attr(AttrTheme); ok && v != "" {
		cfg.Theme = v
	}
	if v, ok := el.Attr(AttrLayout); ok && v != "" {
		cfg.Layout = v
	}
	if v, ok := el.Attr(AttrItemsPerPage); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ItemsPerPage = n
		}
	}
	if v, ok := el.Attr(AttrOpenInNewTab); ok {
		// A bare attribute counts as true.
		cfg.OpenInNewTab = v == "" || v == "true" || v == "1"
	}
	if v, ok := el.Attr(AttrAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	return cfg, true
}

// query is the render state sent with a render request.
type query struct {
	Page   int
	Search string
}

// renderURL builds GET {api}/widgets/{id}/render with the instance filters.
func (c Config) renderURL(q query) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if c.Category != "" {
		v.Set("category", c.Category)
	}
	if len(c.Tags) > 0 {
		v.Set("tags", strings.Join(c.Tags, ","))
	}
	if c.Layout != "" {
		v.Set("layout", c.Layout)
	}
	if c.ItemsPerPage > 0 {
		v.Set("per_page", strconv.Itoa(c.ItemsPerPage))
	}
	return c.APIURL + "/widgets/" + url.PathEscape(c.WidgetID) + "/render?" + v.Encode()
}

func (c Config) trackURL() string {
	return c.APIURL + "/widgets/" + url.PathEscape(c.WidgetID) + "/track"
}

func (c Config) styleID() string {
	return "plinth-widget-style-" + c.ContainerID
}

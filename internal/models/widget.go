package models

import (
	"time"

	"github.com/google/uuid"
)

// WidgetLayout selects the template used to render a widget's items.
type WidgetLayout string

const (
	LayoutGrid  WidgetLayout = "grid"
	LayoutList  WidgetLayout = "list"
	LayoutCards WidgetLayout = "cards"
)

// IsValid reports whether l is a known layout.
func (l WidgetLayout) IsValid() bool {
	switch l {
	case LayoutGrid, LayoutList, LayoutCards:
		return true
	}
	return false
}

// Items-per-page bounds for widgets.
const (
	DefaultItemsPerPage = 12
	MaxItemsPerPage     = 50
)

// Widget is an embeddable content block configured for a website.
type Widget struct {
	ID                uuid.UUID    `json:"id"`
	WebsiteID         uuid.UUID    `json:"website_id"`
	Name              string       `json:"name"`
	Layout            WidgetLayout `json:"layout"`
	ItemsPerPage      int          `json:"items_per_page"`
	OpenLinksInNewTab bool         `json:"open_links_in_new_tab"`
	ShowSearch        bool         `json:"show_search"`
	ShowPagination    bool         `json:"show_pagination"`
	ContentType       string       `json:"content_type,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewWidget creates a Widget with defaults.
func NewWidget(websiteID uuid.UUID, name string) *Widget {
	now := time.Now()
	return &Widget{
		ID:             uuid.New(),
		WebsiteID:      websiteID,
		Name:           name,
		Layout:         LayoutGrid,
		ItemsPerPage:   DefaultItemsPerPage,
		ShowSearch:     true,
		ShowPagination: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// PageSize returns the widget's items per page clamped to the allowed range.
func (w *Widget) PageSize() int {
	switch {
	case w.ItemsPerPage <= 0:
		return DefaultItemsPerPage
	case w.ItemsPerPage > MaxItemsPerPage:
		return MaxItemsPerPage
	default:
		return w.ItemsPerPage
	}
}

// ContentStatus is the publication state of a content item.
type ContentStatus string

const (
	ContentPublished ContentStatus = "published"
	ContentDraft     ContentStatus = "draft"
)

// ContentItem is a single piece of CMS content a widget can display.
type ContentItem struct {
	ID          uuid.UUID     `json:"id"`
	WebsiteID   uuid.UUID     `json:"website_id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Excerpt     string        `json:"excerpt"`
	ContentType string        `json:"content_type"`
	Body        string        `json:"body,omitempty"`
	URL         string        `json:"url"`
	ImageURL    string        `json:"image_url,omitempty"`
	Category    string        `json:"category,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Status      ContentStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ContentFilter narrows the content rows returned for a widget render.
type ContentFilter struct {
	// ContentType restricts results to one content type when non-empty.
	ContentType string
	Search      string
	Category    string
	Tags        []string
	Limit       int
	Offset      int
}

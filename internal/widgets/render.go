// Package widgets renders embeddable content widgets into HTML fragments.
package widgets

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/plinth-cms/plinth/internal/stylesheet"
	"github.com/rs/zerolog"
)

// paginationWindow is the number of numbered page buttons shown.
const paginationWindow = 5

// Store defines the persistence interface for widget rendering.
type Store interface {
	// GetWidget returns (nil, nil) when the widget does not exist.
	GetWidget(ctx context.Context, id uuid.UUID) (*models.Widget, error)
	// ListPublishedContent returns one page of published items and the total
	// number of matching items.
	ListPublishedContent(ctx context.Context, websiteID uuid.UUID, filter models.ContentFilter) ([]*models.ContentItem, int, error)
}

// BrandingLoader loads the records that control widget presentation.
type BrandingLoader interface {
	Pair(ctx context.Context, websiteID uuid.UUID) (*models.BrandConfiguration, *models.WidgetBrandingConfig, error)
}

// StylesheetSource returns the generated stylesheet for a website.
type StylesheetSource interface {
	Get(ctx context.Context, websiteID uuid.UUID) (*stylesheet.Stylesheet, error)
}

// Recorder observes render outcomes.
type Recorder interface {
	RecordRender(outcome string)
	ObserveRender(layout string, d time.Duration)
}

// RenderRequest carries the query parameters of a render call.
type RenderRequest struct {
	Page     int
	Search   string
	Category string
	Tags     []string
	// Layout overrides the widget's layout when valid.
	Layout models.WidgetLayout
	// PerPage overrides the widget's page size when within 1..MaxItemsPerPage.
	PerPage int
}

// Meta describes the page that was rendered.
type Meta struct {
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
	HasNext    bool                `json:"has_next"`
	HasPrev    bool                `json:"has_prev"`
	Layout     models.WidgetLayout `json:"layout"`
}

// Item is the public view of a content item.
type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	BodyHTML    string     `json:"body_html,omitempty"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	RTL         bool       `json:"rtl,omitempty"`
}

// Result is the payload returned by the render endpoint.
type Result struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	Data []Item `json:"data"`
	Meta Meta   `json:"meta"`
}

// Renderer builds widget markup from stored content and branding.
type Renderer struct {
	store       Store
	branding    BrandingLoader
	stylesheets StylesheetSource
	markdown    *Markdown
	metrics     Recorder
	logger      zerolog.Logger
}

// NewRenderer creates a Renderer. metrics may be nil.
func NewRenderer(store Store, branding BrandingLoader, stylesheets StylesheetSource, metrics Recorder, logger zerolog.Logger) *Renderer {
	return &Renderer{
		store:       store,
		branding:    branding,
		stylesheets: stylesheets,
		markdown:    NewMarkdown(),
		metrics:     metrics,
		logger:      logger.With().Str("component", "widget_renderer").Logger(),
	}
}

// Widget returns the widget with the given ID or a not-found error.
func (r *Renderer) Widget(ctx context.Context, id uuid.UUID) (*models.Widget, error) {
	w, err := r.store.GetWidget(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get widget: %w", err)
	}
	if w == nil {
		return nil, apierr.NotFound("widget")
	}
	return w, nil
}

// Render produces the markup, stylesheet and data for one page of a widget.
func (r *Renderer) Render(ctx context.Context, widgetID uuid.UUID, req RenderRequest) (*Result, error) {
	start := time.Now()
	res, err := r.render(ctx, widgetID, req)
	if err != nil {
		outcome := "error"
		if status, _ := apierr.Status(err); status < 500 {
			outcome = "rejected"
		}
		r.recordOutcome(outcome)
		return nil, err
	}
	r.recordOutcome("ok")
	if r.metrics != nil {
		r.metrics.ObserveRender(string(res.Meta.Layout), time.Since(start))
	}
	return res, nil
}

func (r *Renderer) render(ctx context.Context, widgetID uuid.UUID, req RenderRequest) (*Result, error) {
	w, err := r.Widget(ctx, widgetID)
	if err != nil {
		return nil, err
	}

	brand, branding, err := r.branding.Pair(ctx, w.WebsiteID)
	if err != nil {
		return nil, fmt.Errorf("load branding: %w", err)
	}
	sheet, err := r.stylesheets.Get(ctx, w.WebsiteID)
	if err != nil {
		return nil, fmt.Errorf("load stylesheet: %w", err)
	}

	layout := w.Layout
	if req.Layout.IsValid() {
		layout = req.Layout
	}
	if !layout.IsValid() {
		layout = models.LayoutGrid
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := w.PageSize()
	if req.PerPage > 0 && req.PerPage <= models.MaxItemsPerPage {
		perPage = req.PerPage
	}
	// Keep offset and page arithmetic far from overflow; such pages are empty.
	if maxPage := math.MaxInt / (2 * perPage); page > maxPage {
		page = maxPage
	}

	rows, total, err := r.store.ListPublishedContent(ctx, w.WebsiteID, models.ContentFilter{
		ContentType: w.ContentType,
		Search:      strings.TrimSpace(req.Search),
		Category:    strings.TrimSpace(req.Category),
		Tags:        req.Tags,
		Limit:       perPage,
		Offset:      (page - 1) * perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}

	meta := paginate(page, perPage, total, layout)
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, r.item(row, branding.RTLSupport))
	}

	v := &view{
		WidgetID:     w.ID.String(),
		Layout:       layout,
		Search:       req.Search,
		ShowSearch:   w.ShowSearch,
		ShowBranding: branding.ShowBranding && !brand.WhiteLabel.HidePlatformBranding,
		NewTab:       w.OpenLinksInNewTab,
		PoweredByURL: PoweredByURL,
		Items:        items,
		Meta:         meta,
		PrevPage:     meta.Page - 1,
		NextPage:     meta.Page + 1,
	}
	if w.ShowPagination {
		v.Pages = pageWindow(meta.Page, meta.TotalPages, paginationWindow)
	}

	html, err := renderMarkup(v)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("widget_id", w.ID.String()).
		Int("page", meta.Page).
		Int("total", total).
		Msg("rendered widget")

	return &Result{HTML: html, CSS: sheet.CSS, Data: items, Meta: meta}, nil
}

func (r *Renderer) item(row *models.ContentItem, rtlSupport bool) Item {
	it := Item{
		ID:          row.ID.String(),
		Title:       row.Title,
		Slug:        row.Slug,
		Excerpt:     r.markdown.Excerpt(row.Excerpt, row.Body),
		URL:         row.URL,
		ImageURL:    row.ImageURL,
		Category:    row.Category,
		Tags:        row.Tags,
		PublishedAt: row.PublishedAt,
	}
	if it.URL == "" {
		it.URL = "#" + row.Slug
	}
	if row.Body != "" {
		body, err := r.markdown.ToHTML(row.Body)
		if err != nil {
			r.logger.Warn().Err(err).Str("content_id", it.ID).Msg("failed to render content body")
		} else {
			it.BodyHTML = body
		}
	}
	if rtlSupport {
		it.RTL = IsRTL(row.Title)
	}
	return it
}

func (r *Renderer) recordOutcome(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordRender(outcome)
	}
}

func paginate(page, perPage, total int, layout models.WidgetLayout) Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
		Layout:     layout,
	}
}

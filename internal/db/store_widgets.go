package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/plinth-cms/plinth/internal/models"
)

// Widget methods

// GetWidget returns a widget by ID, or nil when none exists.
func (db *DB) GetWidget(ctx context.Context, id uuid.UUID) (*models.Widget, error) {
	var w models.Widget
	var layout string
	err := db.Pool.QueryRow(ctx, `
		SELECT id, website_id, name, layout, items_per_page, open_links_in_new_tab,
		       show_search, show_pagination, content_type, created_at, updated_at
		FROM widgets
		WHERE id = $1
	`, id).Scan(
		&w.ID, &w.WebsiteID, &w.Name, &layout, &w.ItemsPerPage, &w.OpenLinksInNewTab,
		&w.ShowSearch, &w.ShowPagination, &w.ContentType, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get widget: %w", err)
	}
	w.Layout = models.WidgetLayout(layout)
	return &w, nil
}

// CreateWidget inserts a widget.
func (db *DB) CreateWidget(ctx context.Context, w *models.Widget) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO widgets (id, website_id, name, layout, items_per_page, open_links_in_new_tab,
		                     show_search, show_pagination, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, w.ID, w.WebsiteID, w.Name, string(w.Layout), w.PageSize(), w.OpenLinksInNewTab,
		w.ShowSearch, w.ShowPagination, w.ContentType, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create widget: %w", err)
	}
	return nil
}

// Content methods

// CreateContentItem inserts a content item.
func (db *DB) CreateContentItem(ctx context.Context, c *models.ContentItem) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO content_items (id, website_id, title, slug, excerpt, content_type, body, url,
		                           image_url, category, tags, status, published_at,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, c.ID, c.WebsiteID, c.Title, c.Slug, c.Excerpt, c.ContentType, c.Body, c.URL,
		c.ImageURL, c.Category, tags, string(c.Status), c.PublishedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create content item: %w", err)
	}
	return nil
}

const contentFilterClause = `
		WHERE website_id = $1
		  AND status = 'published'
		  AND ($2::text = '' OR content_type = $2)
		  AND ($3::text = '' OR title ILIKE $3 OR excerpt ILIKE $3)
		  AND ($4::text = '' OR category = $4)
		  AND (COALESCE(cardinality($5::text[]), 0) = 0 OR tags @> $5::text[])`

// ListPublishedContent returns one page of a website's published content
// matching filter, newest first, and the total number of matches.
func (db *DB) ListPublishedContent(ctx context.Context, websiteID uuid.UUID, filter models.ContentFilter) ([]*models.ContentItem, int, error) {
	search := ""
	if filter.Search != "" {
		search = "%" + escapeLike(filter.Search) + "%"
	}
	tags := filter.Tags
	if tags == nil {
		tags = []string{}
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	args := []any{websiteID, filter.ContentType, search, filter.Category, tags}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_items`+contentFilterClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count content items: %w", err)
	}
	if total == 0 || filter.Offset >= total {
		return []*models.ContentItem{}, total, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, website_id, title, slug, excerpt, content_type, body, url, image_url,
		       category, tags, status, published_at, created_at, updated_at
		FROM content_items`+contentFilterClause+`
		ORDER BY published_at DESC NULLS LAST, created_at DESC, id
		LIMIT $6 OFFSET $7
	`, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	items := []*models.ContentItem{}
	for rows.Next() {
		var c models.ContentItem
		var status string
		if err := rows.Scan(
			&c.ID, &c.WebsiteID, &c.Title, &c.Slug, &c.Excerpt, &c.ContentType, &c.Body, &c.URL,
			&c.ImageURL, &c.Category, &c.Tags, &status, &c.PublishedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan content item: %w", err)
		}
		c.Status = models.ContentStatus(status)
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate content items: %w", err)
	}
	return items, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

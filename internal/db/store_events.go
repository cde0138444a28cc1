package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/models"
)

// Widget event methods

// CreateWidgetEvent inserts a tracked widget event.
func (db *DB) CreateWidgetEvent(ctx context.Context, e *models.WidgetEvent) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO widget_events (id, widget_id, website_id, event_type, content_id, url,
		                           referrer, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.WidgetID, e.WebsiteID, string(e.EventType), e.ContentID, e.URL,
		e.Referrer, e.UserAgent, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create widget event: %w", err)
	}
	return nil
}

// CountWidgetEvents returns the number of events of each type for a widget.
func (db *DB) CountWidgetEvents(ctx context.Context, widgetID uuid.UUID) (map[models.WidgetEventType]int, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT event_type, COUNT(*)
		FROM widget_events
		WHERE widget_id = $1
		GROUP BY event_type
	`, widgetID)
	if err != nil {
		return nil, fmt.Errorf("count widget events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.WidgetEventType]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("scan widget event count: %w", err)
		}
		counts[models.WidgetEventType(eventType)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate widget event counts: %w", err)
	}
	return counts, nil
}

// DeleteWidgetEventsBefore deletes events created before cutoff and returns
// how many rows were removed.
func (db *DB) DeleteWidgetEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM widget_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete widget events: %w", err)
	}
	return tag.RowsAffected(), nil
}

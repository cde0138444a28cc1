package models

import (
	"time"

	"github.com/google/uuid"
)

// WidgetEventType distinguishes tracked widget interactions.
type WidgetEventType string

const (
	WidgetEventView  WidgetEventType = "view"
	WidgetEventClick WidgetEventType = "click"
)

// IsValid reports whether t is a known event type.
func (t WidgetEventType) IsValid() bool {
	return t == WidgetEventView || t == WidgetEventClick
}

// WidgetEvent is a tracked view or click on an embedded widget.
type WidgetEvent struct {
	ID        uuid.UUID       `json:"id"`
	WidgetID  uuid.UUID       `json:"widget_id"`
	WebsiteID uuid.UUID       `json:"website_id"`
	EventType WidgetEventType `json:"event_type"`
	ContentID *uuid.UUID      `json:"content_id,omitempty"`
	URL       string          `json:"url,omitempty"`
	Referrer  string          `json:"referrer,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewWidgetEvent creates a WidgetEvent stamped with the current time.
func NewWidgetEvent(widgetID, websiteID uuid.UUID, eventType WidgetEventType) *WidgetEvent {
	return &WidgetEvent{
		ID:        uuid.New(),
		WidgetID:  widgetID,
		WebsiteID: websiteID,
		EventType: eventType,
		CreatedAt: time.Now(),
	}
}

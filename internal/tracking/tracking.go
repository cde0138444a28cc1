// Package tracking records view and click events from embedded widgets.
package tracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/rs/zerolog"
)

// Length limits applied to client-supplied strings before storage.
const (
	maxURLLength       = 2048
	maxUserAgentLength = 512
)

// Store defines the persistence interface for widget events.
type Store interface {
	// GetWidget returns (nil, nil) when the widget does not exist.
	GetWidget(ctx context.Context, id uuid.UUID) (*models.Widget, error)
	CreateWidgetEvent(ctx context.Context, e *models.WidgetEvent) error
}

// Recorder observes accepted events.
type Recorder interface {
	RecordEvent(eventType string)
}

// TrackRequest is the body of a tracking call.
type TrackRequest struct {
	EventType models.WidgetEventType `json:"event_type"`
	ContentID string                 `json:"content_id,omitempty"`
	URL       string                 `json:"url,omitempty"`
	Referrer  string                 `json:"referrer,omitempty"`
}

// Validate checks the event type and content ID.
func (r *TrackRequest) Validate() error {
	var fields []apierr.FieldError
	if !r.EventType.IsValid() {
		fields = append(fields, apierr.FieldError{Field: "event_type", Message: "must be one of [view click]"})
	}
	if r.ContentID != "" {
		if _, err := uuid.Parse(r.ContentID); err != nil {
			fields = append(fields, apierr.FieldError{Field: "content_id", Message: "must be a valid UUID"})
		}
	}
	if len(fields) > 0 {
		return apierr.Validation("invalid tracking event", fields...)
	}
	return nil
}

// Service validates and stores widget events.
type Service struct {
	store   Store
	metrics Recorder
	logger  zerolog.Logger
}

// NewService creates a tracking Service. metrics may be nil.
func NewService(store Store, metrics Recorder, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		metrics: metrics,
		logger:  logger.With().Str("component", "tracking").Logger(),
	}
}

// Track records an event for the widget. Content IDs are kept only on clicks.
func (s *Service) Track(ctx context.Context, widgetID uuid.UUID, req *TrackRequest, userAgent string) (*models.WidgetEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	w, err := s.store.GetWidget(ctx, widgetID)
	if err != nil {
		return nil, fmt.Errorf("get widget: %w", err)
	}
	if w == nil {
		return nil, apierr.NotFound("widget")
	}

	e := models.NewWidgetEvent(w.ID, w.WebsiteID, req.EventType)
	e.URL = truncate(req.URL, maxURLLength)
	e.Referrer = truncate(req.Referrer, maxURLLength)
	e.UserAgent = truncate(userAgent, maxUserAgentLength)
	if req.EventType == models.WidgetEventClick && req.ContentID != "" {
		id := uuid.MustParse(req.ContentID)
		e.ContentID = &id
	}

	if err := s.store.CreateWidgetEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create widget event: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordEvent(string(e.EventType))
	}

	s.logger.Debug().
		Str("widget_id", widgetID.String()).
		Str("event_type", string(e.EventType)).
		Msg("widget event recorded")
	return e, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Avoid splitting a multi-byte rune.
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Package metrics provides Prometheus metrics for the Plinth server.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plinth"

// Metrics holds every collector exported by the server.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	WidgetRenders   *prometheus.CounterVec
	RenderDuration  *prometheus.HistogramVec
	WidgetEvents    *prometheus.CounterVec
	StylesheetCache *prometheus.CounterVec
	PreviewClients  prometheus.Gauge
	EventsPurged    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		WidgetRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_renders_total",
			Help:      "Widget render requests by outcome.",
		}, []string{"outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "widget_render_duration_seconds",
			Help:      "Time spent rendering widget markup by layout.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"layout"}),
		WidgetEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_events_total",
			Help:      "Tracked widget events by type.",
		}, []string{"event_type"}),
		StylesheetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stylesheet_cache_requests_total",
			Help:      "Stylesheet cache lookups by result.",
		}, []string{"result"}),
		PreviewClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_clients",
			Help:      "Connected branding preview websocket clients.",
		}),
		EventsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_events_purged_total",
			Help:      "Widget events deleted by the retention job.",
		}),
		registry: reg,
	}

	collectors := []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPDuration,
		m.WidgetRenders,
		m.RenderDuration,
		m.WidgetEvents,
		m.StylesheetCache,
		m.PreviewClients,
		m.EventsPurged,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// RecordRender counts a render request with the given outcome.
func (m *Metrics) RecordRender(outcome string) {
	m.WidgetRenders.WithLabelValues(outcome).Inc()
}

// ObserveRender records how long rendering a layout took.
func (m *Metrics) ObserveRender(layout string, d time.Duration) {
	m.RenderDuration.WithLabelValues(layout).Observe(d.Seconds())
}

// RecordEvent counts a tracked widget event.
func (m *Metrics) RecordEvent(eventType string) {
	m.WidgetEvents.WithLabelValues(eventType).Inc()
}

// RecordCacheHit counts a stylesheet cache hit or miss.
func (m *Metrics) RecordCacheHit(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.StylesheetCache.WithLabelValues(result).Inc()
}

// RecordPurged counts widget events deleted by the retention job.
func (m *Metrics) RecordPurged(n int64) {
	m.EventsPurged.Add(float64(n))
}

// SetPreviewClients records the number of connected preview websockets.
func (m *Metrics) SetPreviewClients(n int) {
	m.PreviewClients.Set(float64(n))
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

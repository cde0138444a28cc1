package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// sensitiveParams lists query parameter names whose values are redacted from logs.
var sensitiveParams = map[string]bool{
	"token":        true,
	"access_token": true,
	"key":          true,
	"api_key":      true,
	"secret":       true,
	"password":     true,
}

// tenantParams maps route parameters to the log fields that identify the
// widget, website or agency a request belongs to.
var tenantParams = []struct{ param, field string }{
	{"widgetId", "widget_id"},
	{"websiteId", "website_id"},
	{"agencyId", "agency_id"},
	{"templateId", "template_id"},
}

// redactQueryString replaces values of known sensitive query parameters with [REDACTED].
func redactQueryString(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	redacted := false
	for name, values := range params {
		if !sensitiveParams[strings.ToLower(name)] {
			continue
		}
		for i := range values {
			values[i] = "[REDACTED]"
		}
		redacted = true
	}
	if !redacted {
		return rawQuery
	}
	return params.Encode()
}

// embedHost returns the host of the page a widget request came from, taken
// from Origin or, failing that, Referer. Paths and queries of the host page
// are never logged.
func embedHost(r *gin.Context) string {
	for _, h := range []string{"Origin", "Referer"} {
		raw := r.GetHeader(h)
		if raw == "" || raw == "null" {
			continue
		}
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

// RequestLogger returns a middleware that logs one line per HTTP request.
// Requests are logged under their route template with tenant identifiers as
// separate fields, so widget traffic can be grouped without parsing paths.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		query := redactQueryString(c.Request.URL.RawQuery)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
			event = event.Str("path", c.Request.URL.Path)
		}
		for _, p := range tenantParams {
			if v := c.Param(p.param); v != "" {
				event = event.Str(p.field, v)
			}
		}
		if strings.HasPrefix(route, "/widgets/") || strings.HasPrefix(route, "/api/brand/") {
			if host := embedHost(c); host != "" {
				event = event.Str("embed_host", host)
			}
		}
		if query != "" {
			event = event.Str("query", query)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}

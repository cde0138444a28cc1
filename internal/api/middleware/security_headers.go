package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// cspAPI is a strict Content-Security-Policy. The server only returns JSON
// and stylesheets, so no response needs to load further resources.
const cspAPI = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders returns a middleware that sets security-related HTTP response headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Header("Content-Security-Policy", cspAPI)

		// HSTS - only in production with TLS
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Widget payloads and stylesheets are loaded by third-party pages.
		if isEmbedRoute(c.Request.URL.Path) {
			c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		} else {
			c.Header("Cross-Origin-Resource-Policy", "same-origin")
		}

		c.Next()
	}
}

// isEmbedRoute returns true for public paths consumed by embedded widgets.
func isEmbedRoute(path string) bool {
	return strings.HasPrefix(path, "/widgets/") ||
		strings.HasPrefix(path, "/api/brand/")
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plinth-cms/plinth/internal/apierr"
)

// BodyLimitMiddleware returns a Gin middleware that limits the size of request bodies.
// Requests exceeding maxBytes fail when the handler reads past the limit.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return RouteBodyLimits(maxBytes, nil)
}

// RouteBodyLimits is BodyLimitMiddleware with per-route limits keyed by the
// matched route pattern, e.g. "/api/websites/:websiteId/brand/assets/:kind".
// Requests with a Content-Length above the limit are rejected up front.
func RouteBodyLimits(defaultMax int64, routes map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultMax
		if n, ok := routes[c.FullPath()]; ok {
			limit = n
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, payloadTooLarge())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func payloadTooLarge() apierr.Envelope {
	return apierr.Fail(apierr.CodePayloadTooLarge, "request body too large", nil)
}

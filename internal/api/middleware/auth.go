// Package middleware provides HTTP middleware for the Plinth API.
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

const (
	// AdminKeyContextKey holds a short fingerprint of the authenticated admin key.
	AdminKeyContextKey ContextKey = "admin_key"
)

// HashAPIKey returns the hex sha256 of an API key.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ExtractBearerToken returns the token of a "Bearer <token>" header, or "".
func ExtractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AdminKeys validates bearer tokens against a fixed set of admin API keys.
// Only hashes are retained.
type AdminKeys struct {
	hashes [][]byte
}

// NewAdminKeys hashes the configured keys. Blank keys are ignored.
func NewAdminKeys(keys []string) *AdminKeys {
	a := &AdminKeys{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			a.hashes = append(a.hashes, []byte(HashAPIKey(k)))
		}
	}
	return a
}

// Len returns the number of configured keys.
func (a *AdminKeys) Len() int {
	return len(a.hashes)
}

// Match reports whether key is one of the configured keys. Every stored
// hash is compared so timing does not depend on which key matched.
func (a *AdminKeys) Match(key string) bool {
	computed := []byte(HashAPIKey(key))
	matched := 0
	for _, h := range a.hashes {
		matched |= subtle.ConstantTimeCompare(computed, h)
	}
	return matched == 1
}

// AdminAuthMiddleware returns a Gin middleware that requires a valid admin
// API key in the Authorization header. Websocket upgrades may pass the key
// as the access_token query parameter instead, since browsers cannot set
// headers on them.
func AdminAuthMiddleware(keys *AdminKeys, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "admin_auth_middleware").Logger()

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" && isWebSocketUpgrade(c.Request) {
			if token := c.Query("access_token"); token != "" {
				authHeader = "Bearer " + token
			}
		}
		if authHeader == "" {
			log.Debug().Str("path", c.Request.URL.Path).Msg("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierr.Fail(apierr.CodeUnauthorized, "authorization required", nil))
			return
		}

		token := ExtractBearerToken(authHeader)
		if token == "" {
			log.Debug().Str("path", c.Request.URL.Path).Msg("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierr.Fail(apierr.CodeUnauthorized, "invalid authorization format", nil))
			return
		}

		if !keys.Match(token) {
			log.Debug().Str("path", c.Request.URL.Path).Msg("invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apierr.Fail(apierr.CodeUnauthorized, "invalid API key", nil))
			return
		}

		fingerprint := HashAPIKey(token)[:8]
		c.Set(string(AdminKeyContextKey), fingerprint)

		log.Debug().
			Str("key", fingerprint).
			Str("path", c.Request.URL.Path).
			Msg("authenticated admin request")

		c.Next()
	}
}

// GetAdminKey returns the fingerprint of the authenticated admin key, or "".
func GetAdminKey(c *gin.Context) string {
	return c.GetString(string(AdminKeyContextKey))
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

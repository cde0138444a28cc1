package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/plinth-cms/plinth/internal/config"
	"github.com/rs/zerolog"
)

const testOrigin = "https://app.plinth.test"

func newCORSRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.OPTIONS("/test", func(c *gin.Context) {
		// Not reached; the middleware aborts preflights first.
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func corsRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_AllowedOrigin(t *testing.T) {
	r := newCORSRouter(CORS([]string{testOrigin, "https://admin.plinth.test"}, config.EnvDevelopment, zerolog.Nop()))

	w := corsRequest(r, "GET", testOrigin)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Fatalf("expected Access-Control-Allow-Origin %q, got %q", testOrigin, got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected Access-Control-Allow-Credentials 'true', got %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	r := newCORSRouter(CORS([]string{testOrigin}, config.EnvDevelopment, zerolog.Nop()))

	w := corsRequest(r, "GET", "https://evil.example.com")
	// CORS doesn't block server-side
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin header, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := newCORSRouter(CORS([]string{testOrigin}, config.EnvDevelopment, zerolog.Nop()))

	w := corsRequest(r, "OPTIONS", testOrigin)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected Access-Control-Allow-Methods header to be set")
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Fatalf("expected Access-Control-Max-Age '86400', got %q", got)
	}
}

func TestCORS_AllowAllOrigins(t *testing.T) {
	r := newCORSRouter(CORS(nil, config.EnvDevelopment, zerolog.Nop()))

	w := corsRequest(r, "GET", "http://localhost:5173")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected Access-Control-Allow-Origin 'http://localhost:5173', got %q", got)
	}
}

func TestCORS_CaseInsensitive(t *testing.T) {
	r := newCORSRouter(CORS([]string{testOrigin}, config.EnvDevelopment, zerolog.Nop()))

	w := corsRequest(r, "GET", "HTTPS://APP.PLINTH.TEST")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "HTTPS://APP.PLINTH.TEST" {
		t.Fatalf("expected case-insensitive match, got %q", got)
	}
}

func TestCORS_NoOriginHeader(t *testing.T) {
	r := newCORSRouter(CORS([]string{testOrigin}, config.EnvDevelopment, zerolog.Nop()))

	w := corsRequest(r, "GET", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers without Origin, got %q", got)
	}
}

func TestCORS_ProductionRequiresOrigins(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic with empty origins in production")
		}
	}()
	CORS(nil, config.EnvProduction, zerolog.Nop())
}

func TestPublicCORS(t *testing.T) {
	r := newCORSRouter(PublicCORS())

	w := corsRequest(r, "GET", "https://customer-site.test")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("expected no credentials header, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "ETag" {
		t.Fatalf("expected ETag exposed, got %q", got)
	}

	if w := corsRequest(r, "OPTIONS", "https://customer-site.test"); w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for preflight, got %d", w.Code)
	}
}

func TestRouteCORS(t *testing.T) {
	r := gin.New()
	r.Use(RouteCORS(CORS([]string{testOrigin}, config.EnvDevelopment, zerolog.Nop())))
	r.GET("/widgets/:id/render", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/websites/:id/brand", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		path, origin, want string
	}{
		{"/widgets/w1/render", "https://customer.example", "*"},
		{"/api/websites/s1/brand", testOrigin, testOrigin},
		{"/api/websites/s1/brand", "https://customer.example", ""},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", tt.path, nil)
		req.Header.Set("Origin", tt.origin)
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("%s from %s: expected allow origin %q, got %q", tt.path, tt.origin, tt.want, got)
		}
	}

	// Preflights reach the middleware even without an OPTIONS route.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/widgets/w1/track", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected preflight status 204, got %d", w.Code)
	}
}

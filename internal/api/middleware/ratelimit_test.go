package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/rs/zerolog"
)

func newLimitedRouter(t *testing.T, requests int64) *gin.Engine {
	t.Helper()
	mw, err := NewRateLimiter(RateLimitConfig{Requests: requests, Period: "1m"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doFrom(r *gin.Engine, addr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = addr
	r.ServeHTTP(w, req)
	return w
}

func TestNewRateLimiter(t *testing.T) {
	t.Run("invalid period", func(t *testing.T) {
		_, err := NewRateLimiter(RateLimitConfig{Requests: 10, Period: "invalid"}, zerolog.Nop())
		if err == nil {
			t.Fatal("expected error for invalid period")
		}
	})

	t.Run("invalid requests", func(t *testing.T) {
		_, err := NewRateLimiter(RateLimitConfig{Requests: 0, Period: "1m"}, zerolog.Nop())
		if err == nil {
			t.Fatal("expected error for zero requests")
		}
	})

	t.Run("requests within limit succeed", func(t *testing.T) {
		r := newLimitedRouter(t, 5)
		for i := 0; i < 5; i++ {
			if w := doFrom(r, "127.0.0.1:12345"); w.Code != http.StatusOK {
				t.Fatalf("request %d: expected status 200, got %d", i+1, w.Code)
			}
		}
	})

	t.Run("requests exceeding limit rejected", func(t *testing.T) {
		r := newLimitedRouter(t, 2)
		for i := 0; i < 2; i++ {
			doFrom(r, "10.0.0.1:12345")
		}

		w := doFrom(r, "10.0.0.1:12345")
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected status 429, got %d", w.Code)
		}

		var env apierr.Envelope
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if env.Success || env.Error == nil || env.Error.Code != apierr.CodeRateLimited {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
		if w.Header().Get("X-RateLimit-Limit") != "2" {
			t.Errorf("expected X-RateLimit-Limit 2, got %q", w.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("different IPs have separate limits", func(t *testing.T) {
		r := newLimitedRouter(t, 1)
		if w := doFrom(r, "192.168.1.1:12345"); w.Code != http.StatusOK {
			t.Fatalf("first IP: expected status 200, got %d", w.Code)
		}
		if w := doFrom(r, "192.168.1.2:12345"); w.Code != http.StatusOK {
			t.Fatalf("second IP: expected status 200, got %d", w.Code)
		}
	})
}

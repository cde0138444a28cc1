package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/cache"
	"github.com/plinth-cms/plinth/internal/metrics"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/plinth-cms/plinth/internal/tracking"
	"github.com/plinth-cms/plinth/internal/widgets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminKey = "plk_test_admin"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }
func (fakeDB) Health() map[string]any   { return map[string]any{"total_conns": int32(1)} }

type brandStore struct {
	mu     sync.Mutex
	widget map[uuid.UUID]models.WidgetBrandingConfig
	brand  map[uuid.UUID]models.BrandConfiguration
}

func (s *brandStore) GetWidgetBranding(_ context.Context, id uuid.UUID) (*models.WidgetBrandingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.widget[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *brandStore) UpsertWidgetBranding(_ context.Context, c *models.WidgetBrandingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widget[c.WebsiteID] = *c
	return nil
}

func (s *brandStore) GetBrandConfiguration(_ context.Context, id uuid.UUID) (*models.BrandConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.brand[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *brandStore) UpsertBrandConfiguration(_ context.Context, c *models.BrandConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brand[c.WebsiteID] = *c
	return nil
}

type noTemplates struct{}

func (noTemplates) CreateBrandTemplate(context.Context, *models.AgencyBrandTemplate) error { return nil }
func (noTemplates) GetBrandTemplate(context.Context, uuid.UUID) (*models.AgencyBrandTemplate, error) {
	return nil, nil
}
func (noTemplates) ListBrandTemplates(context.Context, uuid.UUID) ([]*models.AgencyBrandTemplate, error) {
	return nil, nil
}
func (noTemplates) UpdateBrandTemplate(context.Context, *models.AgencyBrandTemplate) error { return nil }
func (noTemplates) DeleteBrandTemplate(context.Context, uuid.UUID) error                  { return nil }

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _ uuid.UUID, req widgets.RenderRequest) (*widgets.Result, error) {
	return &widgets.Result{HTML: "<div></div>", Meta: widgets.Meta{Page: req.Page}}, nil
}

type stubTracker struct{}

func (stubTracker) Track(_ context.Context, widgetID uuid.UUID, req *tracking.TrackRequest, _ string) (*models.WidgetEvent, error) {
	return models.NewWidgetEvent(widgetID, uuid.New(), req.EventType), nil
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	store := &brandStore{
		widget: make(map[uuid.UUID]models.WidgetBrandingConfig),
		brand:  make(map[uuid.UUID]models.BrandConfiguration),
	}
	svc := branding.NewService(store, noTemplates{}, zerolog.Nop())
	sheets := cache.NewStylesheets(svc, cache.NewMemory(time.Hour), m, zerolog.Nop())
	svc.OnChange(sheets)

	cfg := DefaultConfig()
	cfg.AdminAPIKeys = []string{testAdminKey}
	cfg.AllowedOrigins = []string{"https://admin.plinth.test"}
	cfg.MaxBodyBytes = 1024

	r, err := NewRouter(cfg, Dependencies{
		DB:          fakeDB{},
		Branding:    svc,
		Stylesheets: sheets,
		Renderer:    stubRenderer{},
		Tracker:     stubTracker{},
		Metrics:     m,
	}, zerolog.Nop())
	require.NoError(t, err)
	return r
}

func serve(r *Router, method, path, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminKey)
	}
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t)
	websiteID := uuid.New().String()

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/health", "", false).Code)
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/version", "", false).Code)
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/api/brand/"+websiteID+"/css", "", false).Code)
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/widgets/"+uuid.New().String()+"/render", "", false).Code)

	w := serve(r, "GET", "/metrics", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plinth_http_requests_total")
}

func TestRouter_AdminRequiresKey(t *testing.T) {
	r := newTestRouter(t)
	path := "/api/websites/" + uuid.New().String() + "/brand"

	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", path, "", false).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/api/agencies/"+uuid.New().String()+"/brand-templates", "", false).Code)
	assert.Equal(t, http.StatusOK, serve(r, "GET", path, "", true).Code)
}

func TestRouter_UpdateInvalidatesStylesheet(t *testing.T) {
	r := newTestRouter(t)
	websiteID := uuid.New().String()
	cssPath := "/api/brand/" + websiteID + "/css"

	before := serve(r, "GET", cssPath, "", false)
	require.Equal(t, http.StatusOK, before.Code)
	assert.Contains(t, before.Body.String(), models.DefaultPrimaryColor)

	w := serve(r, "PUT", "/api/websites/"+websiteID+"/brand", `{"colors":{"primary":"#123456"}}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	after := serve(r, "GET", cssPath, "", false)
	require.Equal(t, http.StatusOK, after.Code)
	assert.Contains(t, after.Body.String(), "#123456")
	assert.NotEqual(t, before.Header().Get("ETag"), after.Header().Get("ETag"))
}

func TestRouter_BodyLimit(t *testing.T) {
	r := newTestRouter(t)
	body, _ := json.Marshal(map[string]string{"custom_css": strings.Repeat("a", 2048)})

	w := serve(r, "PUT", "/api/websites/"+uuid.New().String()+"/brand", string(body), true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", env.Error.Code)
}

func TestRouter_CORSByRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/brand/"+uuid.New().String()+"/variables", nil)
	req.Header.Set("Origin", "https://customer.example")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/websites/"+uuid.New().String()+"/brand", nil)
	req.Header.Set("Origin", "https://customer.example")
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

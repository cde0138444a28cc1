package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/rs/zerolog"
)

// memStore implements branding.Store and branding.TemplateStore in memory.
type memStore struct {
	mu        sync.Mutex
	widget    map[uuid.UUID]models.WidgetBrandingConfig
	brand     map[uuid.UUID]models.BrandConfiguration
	templates map[uuid.UUID]models.AgencyBrandTemplate
	writes    int
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{
		widget:    make(map[uuid.UUID]models.WidgetBrandingConfig),
		brand:     make(map[uuid.UUID]models.BrandConfiguration),
		templates: make(map[uuid.UUID]models.AgencyBrandTemplate),
	}
}

func (m *memStore) GetWidgetBranding(_ context.Context, id uuid.UUID) (*models.WidgetBrandingConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if c, ok := m.widget[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) UpsertWidgetBranding(_ context.Context, c *models.WidgetBrandingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.widget[c.WebsiteID] = *c
	return nil
}

func (m *memStore) GetBrandConfiguration(_ context.Context, id uuid.UUID) (*models.BrandConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if c, ok := m.brand[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) UpsertBrandConfiguration(_ context.Context, c *models.BrandConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.brand[c.WebsiteID] = *c
	return nil
}

func (m *memStore) CreateBrandTemplate(_ context.Context, t *models.AgencyBrandTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = *t
	return nil
}

func (m *memStore) GetBrandTemplate(_ context.Context, id uuid.UUID) (*models.AgencyBrandTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.templates[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *memStore) ListBrandTemplates(_ context.Context, agencyID uuid.UUID) ([]*models.AgencyBrandTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AgencyBrandTemplate
	for _, t := range m.templates {
		if t.AgencyID == agencyID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateBrandTemplate(_ context.Context, t *models.AgencyBrandTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return errors.New("template not found")
	}
	m.templates[t.ID] = *t
	return nil
}

func (m *memStore) DeleteBrandTemplate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

func setupBrandingRouter(store *memStore) (*gin.Engine, *branding.Service) {
	svc := branding.NewService(store, store, zerolog.Nop())
	r := gin.New()
	api := r.Group("/api")
	NewBrandingHandler(svc, zerolog.Nop()).RegisterRoutes(api.Group("/websites"))
	NewBrandTemplatesHandler(svc, zerolog.Nop()).RegisterRoutes(api.Group("/agencies"))
	return r, svc
}

func TestBrandingHandler_GetWidgetBrandingDefaults(t *testing.T) {
	store := newMemStore()
	r, _ := setupBrandingRouter(store)
	websiteID := uuid.New()

	w := doRequest(r, "GET", "/api/websites/"+websiteID.String()+"/widget-branding", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var cfg models.WidgetBrandingConfig
	decodeData(t, w, &cfg)
	if cfg.WebsiteID != websiteID {
		t.Errorf("expected website %s, got %s", websiteID, cfg.WebsiteID)
	}
	if cfg.Theme != models.WidgetThemeLight || cfg.BorderRadius != 8 || cfg.ShadowLevel != models.ShadowMD {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.ShowBranding || !cfg.MobileOptimized || cfg.RTLSupport {
		t.Errorf("unexpected default flags: %+v", cfg)
	}
	if store.writes != 1 {
		t.Errorf("expected defaults persisted once, got %d writes", store.writes)
	}
}

func TestBrandingHandler_UpdateWidgetBranding(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	path := "/api/websites/" + uuid.New().String() + "/widget-branding"

	for _, radius := range []int{0, 25, 50} {
		body := map[string]any{
			"theme":            "dark",
			"border_radius":    radius,
			"shadow_level":     "xl",
			"animation":        "slide",
			"position":         "bottom-left",
			"show_branding":    false,
			"custom_css":       ".plinth-widget{gap:4px}",
			"mobile_optimized": false,
			"rtl_support":      true,
		}
		w := doRequest(r, "PUT", path, body)
		if w.Code != http.StatusOK {
			t.Fatalf("radius %d: expected status 200, got %d: %s", radius, w.Code, w.Body.String())
		}

		var cfg models.WidgetBrandingConfig
		decodeData(t, w, &cfg)
		if cfg.BorderRadius != radius || cfg.Theme != models.WidgetThemeDark ||
			cfg.ShadowLevel != models.ShadowXL || cfg.Animation != models.AnimationSlide ||
			cfg.Position != models.PositionBottomLeft || cfg.ShowBranding ||
			cfg.CustomCSS != ".plinth-widget{gap:4px}" || cfg.MobileOptimized || !cfg.RTLSupport {
			t.Errorf("radius %d: update not reflected: %+v", radius, cfg)
		}
	}
}

func TestBrandingHandler_UpdateWidgetBrandingValidation(t *testing.T) {
	store := newMemStore()
	r, _ := setupBrandingRouter(store)
	path := "/api/websites/" + uuid.New().String() + "/widget-branding"

	tests := map[string]any{
		"radius -1":      map[string]any{"border_radius": -1},
		"radius 51":      map[string]any{"border_radius": 51},
		"radius 100":     map[string]any{"border_radius": 100},
		"unknown theme":  map[string]any{"theme": "neon"},
		"unknown shadow": map[string]any{"shadow_level": "xxl"},
		"css too long":   map[string]any{"custom_css": strings.Repeat("a", 10001)},
		"malformed json": "{",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := doRequest(r, "PUT", path, body)
			expectError(t, w, http.StatusBadRequest, apierr.CodeValidation)
		})
	}
	if store.writes != 0 {
		t.Errorf("expected no writes after validation failures, got %d", store.writes)
	}
}

func TestBrandingHandler_ResetWidgetBranding(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	path := "/api/websites/" + uuid.New().String() + "/widget-branding"

	doRequest(r, "PUT", path, map[string]any{"theme": "auto", "border_radius": 30})
	w := doRequest(r, "POST", path+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var cfg models.WidgetBrandingConfig
	decodeData(t, w, &cfg)
	if cfg.Theme != models.WidgetThemeLight || cfg.BorderRadius != 8 {
		t.Errorf("expected defaults after reset, got %+v", cfg)
	}
}

func TestBrandingHandler_UpdateBrand(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	path := "/api/websites/" + uuid.New().String() + "/brand"

	w := doRequest(r, "PUT", path, map[string]any{
		"colors":        map[string]any{"primary": "#112233", "accent": "#abcdef"},
		"fonts":         map[string]any{"heading": "Georgia, serif"},
		"custom_domain": "news.acme.test",
		"white_label":   map[string]any{"hide_platform_branding": true},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var cfg models.BrandConfiguration
	decodeData(t, w, &cfg)
	if cfg.Colors.Primary != "#112233" || cfg.Colors.Accent != "#abcdef" {
		t.Errorf("colors not applied: %+v", cfg.Colors)
	}
	if cfg.Colors.Secondary != models.DefaultSecondaryColor {
		t.Errorf("expected untouched secondary color, got %q", cfg.Colors.Secondary)
	}
	if cfg.Fonts.Heading != "Georgia, serif" || cfg.Fonts.Body != models.DefaultFontFamily {
		t.Errorf("fonts not applied: %+v", cfg.Fonts)
	}
	if cfg.CustomDomain.Domain != "news.acme.test" || cfg.CustomDomain.Verified {
		t.Errorf("unexpected custom domain: %+v", cfg.CustomDomain)
	}
	if !cfg.WhiteLabel.HidePlatformBranding {
		t.Error("expected hide_platform_branding")
	}
}

func TestBrandingHandler_UpdateBrandInvalidColor(t *testing.T) {
	store := newMemStore()
	r, _ := setupBrandingRouter(store)
	path := "/api/websites/" + uuid.New().String() + "/brand"

	for _, color := range []string{"red", "#FFF", "#GGGGGG", "112233", "#1122334"} {
		t.Run(color, func(t *testing.T) {
			w := doRequest(r, "PUT", path, map[string]any{"colors": map[string]any{"background": color}})
			env := expectError(t, w, http.StatusBadRequest, apierr.CodeInvalidColorCode)
			if !strings.Contains(string(env.Error.Details), "colors.background") {
				t.Errorf("expected field in details, got %s", env.Error.Details)
			}
		})
	}
	if store.writes != 0 {
		t.Errorf("expected no writes, got %d", store.writes)
	}
}

func TestBrandingHandler_ResetBrand(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	path := "/api/websites/" + uuid.New().String() + "/brand"

	doRequest(r, "PUT", path, map[string]any{"colors": map[string]any{"primary": "#000000"}})
	w := doRequest(r, "POST", path+"/reset", nil)

	var cfg models.BrandConfiguration
	decodeData(t, w, &cfg)
	if cfg.Colors.Primary != models.DefaultPrimaryColor {
		t.Errorf("expected default primary after reset, got %q", cfg.Colors.Primary)
	}
}

func TestBrandingHandler_InvalidWebsiteID(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())

	w := doRequest(r, "GET", "/api/websites/not-a-uuid/brand", nil)
	expectError(t, w, http.StatusBadRequest, apierr.CodeValidation)
}

func TestBrandingHandler_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failWith = errors.New("connection reset by peer")
	r, _ := setupBrandingRouter(store)

	w := doRequest(r, "GET", "/api/websites/"+uuid.New().String()+"/widget-branding", nil)
	env := expectError(t, w, http.StatusInternalServerError, apierr.CodeInternal)
	if strings.Contains(env.Error.Message, "connection reset") {
		t.Errorf("store error leaked to client: %q", env.Error.Message)
	}
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/models"
)

func TestBrandTemplatesHandler_CRUD(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	agencyID := uuid.New()
	base := "/api/agencies/" + agencyID.String() + "/brand-templates"

	w := doRequest(r, "POST", base, map[string]any{
		"name":   "  Harbor  ",
		"colors": map[string]any{"primary": "#0E7490"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.AgencyBrandTemplate
	decodeData(t, w, &created)
	if created.Name != "Harbor" || created.Colors.Primary != "#0E7490" {
		t.Fatalf("unexpected template: %+v", created)
	}
	if created.Colors.Secondary != models.DefaultSecondaryColor {
		t.Errorf("expected default secondary, got %q", created.Colors.Secondary)
	}

	doRequest(r, "POST", base, map[string]any{"name": "Aurora"})

	w = doRequest(r, "GET", base, nil)
	var list []models.AgencyBrandTemplate
	decodeData(t, w, &list)
	if len(list) != 2 || list[0].Name != "Aurora" {
		t.Fatalf("expected 2 templates sorted by name, got %+v", list)
	}

	item := base + "/" + created.ID.String()
	w = doRequest(r, "PUT", item, map[string]any{"name": "Harbor v2", "custom_css": ".a{}"})
	var updated models.AgencyBrandTemplate
	decodeData(t, w, &updated)
	if updated.Name != "Harbor v2" || updated.CustomCSS != ".a{}" {
		t.Errorf("update not applied: %+v", updated)
	}

	w = doRequest(r, "DELETE", item, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	w = doRequest(r, "GET", item, nil)
	expectError(t, w, http.StatusNotFound, apierr.CodeNotFound)
}

func TestBrandTemplatesHandler_Validation(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	base := "/api/agencies/" + uuid.New().String() + "/brand-templates"

	w := doRequest(r, "POST", base, map[string]any{"name": ""})
	expectError(t, w, http.StatusBadRequest, apierr.CodeValidation)

	w = doRequest(r, "POST", base, map[string]any{"name": "Bad", "colors": map[string]any{"text": "blue"}})
	expectError(t, w, http.StatusBadRequest, apierr.CodeInvalidColorCode)
}

func TestBrandTemplatesHandler_OtherAgency(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	owner := "/api/agencies/" + uuid.New().String() + "/brand-templates"

	w := doRequest(r, "POST", owner, map[string]any{"name": "Private"})
	var created models.AgencyBrandTemplate
	decodeData(t, w, &created)

	other := "/api/agencies/" + uuid.New().String() + "/brand-templates/" + created.ID.String()
	expectError(t, doRequest(r, "GET", other, nil), http.StatusNotFound, apierr.CodeNotFound)
	expectError(t, doRequest(r, "DELETE", other, nil), http.StatusNotFound, apierr.CodeNotFound)
}

func TestBrandingHandler_ApplyTemplate(t *testing.T) {
	r, _ := setupBrandingRouter(newMemStore())
	websiteID := uuid.New()

	w := doRequest(r, "POST", "/api/agencies/"+uuid.New().String()+"/brand-templates", map[string]any{
		"name":       "Forest",
		"colors":     map[string]any{"primary": "#166534", "background": "#F0FDF4"},
		"fonts":      map[string]any{"body": "Lora, serif"},
		"custom_css": ".plinth-widget{border:0}",
	})
	var tmpl models.AgencyBrandTemplate
	decodeData(t, w, &tmpl)

	path := "/api/websites/" + websiteID.String() + "/brand/apply-template/" + tmpl.ID.String()
	w = doRequest(r, "POST", path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var cfg models.BrandConfiguration
	decodeData(t, w, &cfg)
	if cfg.Colors.Primary != "#166534" || cfg.Colors.Background != "#F0FDF4" {
		t.Errorf("colors not copied: %+v", cfg.Colors)
	}
	if cfg.Fonts.Body != "Lora, serif" || cfg.CustomCSS != ".plinth-widget{border:0}" {
		t.Errorf("fonts or css not copied: %+v", cfg)
	}

	missing := "/api/websites/" + websiteID.String() + "/brand/apply-template/" + uuid.New().String()
	expectError(t, doRequest(r, "POST", missing, nil), http.StatusNotFound, apierr.CodeNotFound)
}

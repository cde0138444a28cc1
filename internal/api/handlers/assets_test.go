package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/branding"
	"github.com/plinth-cms/plinth/internal/models"
	"github.com/rs/zerolog"
)

// pngHeader is the signature sniffed as image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeAssetStore struct {
	kind, contentType, ext string
	body                   []byte
}

func (f *fakeAssetStore) Put(_ context.Context, websiteID uuid.UUID, kind, contentType, ext string, body io.Reader) (string, error) {
	f.kind, f.contentType, f.ext = kind, contentType, ext
	f.body, _ = io.ReadAll(body)
	return "https://cdn.test/brands/" + websiteID.String() + "/" + kind + ext, nil
}

func setupAssetsRouter(store AssetStore, recorder AssetRecorder) *gin.Engine {
	r := gin.New()
	NewAssetsHandler(store, recorder, zerolog.Nop()).RegisterRoutes(r.Group("/api/websites"))
	return r
}

func uploadRequest(t *testing.T, path, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "upload.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req, _ := http.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAssetsHandler_UploadLogo(t *testing.T) {
	store := &fakeAssetStore{}
	brands := newMemStore()
	svc := branding.NewService(brands, brands, zerolog.Nop())
	r := setupAssetsRouter(store, svc)
	websiteID := uuid.New()

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/websites/"+websiteID.String()+"/brand/assets/logo", "file", content))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	if store.contentType != "image/png" || store.ext != ".png" || store.kind != "logo" {
		t.Errorf("unexpected upload: %s %s %s", store.kind, store.contentType, store.ext)
	}
	if !bytes.Equal(store.body, content) {
		t.Errorf("stored %d bytes, want %d", len(store.body), len(content))
	}

	var data struct {
		URL   string                    `json:"url"`
		Brand models.BrandConfiguration `json:"brand"`
	}
	decodeData(t, w, &data)
	if data.Brand.LogoURL != data.URL || data.URL == "" {
		t.Errorf("expected logo url %q recorded, got %q", data.URL, data.Brand.LogoURL)
	}
}

func TestAssetsHandler_UploadFaviconSetsFlag(t *testing.T) {
	brands := newMemStore()
	svc := branding.NewService(brands, brands, zerolog.Nop())
	r := setupAssetsRouter(&fakeAssetStore{}, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/websites/"+uuid.New().String()+"/brand/assets/favicon", "file", pngHeader))

	var data struct {
		Brand models.BrandConfiguration `json:"brand"`
	}
	decodeData(t, w, &data)
	if data.Brand.FaviconURL == "" || !data.Brand.WhiteLabel.CustomFavicon {
		t.Errorf("expected favicon recorded, got %+v", data.Brand)
	}
}

func TestAssetsHandler_Rejections(t *testing.T) {
	brands := newMemStore()
	svc := branding.NewService(brands, brands, zerolog.Nop())
	r := setupAssetsRouter(&fakeAssetStore{}, svc)
	base := "/api/websites/" + uuid.New().String() + "/brand/assets/"

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"unknown kind", uploadRequest(t, base+"banner", "file", pngHeader), http.StatusBadRequest, apierr.CodeValidation},
		{"missing file", uploadRequest(t, base+"logo", "image", pngHeader), http.StatusBadRequest, apierr.CodeValidation},
		{"svg", uploadRequest(t, base+"logo", "file", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)), http.StatusBadRequest, apierr.CodeValidation},
		{"too large", uploadRequest(t, base+"logo", "file", append(append([]byte{}, pngHeader...), make([]byte, 2<<20)...)), http.StatusRequestEntityTooLarge, apierr.CodePayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)
			expectError(t, w, tt.status, tt.code)
		})
	}
	if brands.writes != 0 {
		t.Errorf("expected no brand writes, got %d", brands.writes)
	}
}

func TestAssetsHandler_StorageDisabled(t *testing.T) {
	brands := newMemStore()
	r := setupAssetsRouter(nil, branding.NewService(brands, brands, zerolog.Nop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/websites/"+uuid.New().String()+"/brand/assets/logo", "file", pngHeader))
	expectError(t, w, http.StatusServiceUnavailable, apierr.CodeUnavailable)
}

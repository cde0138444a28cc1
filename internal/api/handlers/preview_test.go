package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/rs/zerolog"
)

type fakePreviewHub struct {
	websiteID uuid.UUID
	calls     int
}

func (f *fakePreviewHub) HandleWebSocket(w http.ResponseWriter, _ *http.Request, websiteID uuid.UUID) {
	f.calls++
	f.websiteID = websiteID
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func TestPreviewHandler_WebSocket(t *testing.T) {
	hub := &fakePreviewHub{}
	r := gin.New()
	NewPreviewHandler(hub, zerolog.Nop()).RegisterRoutes(r.Group("/api/websites"))

	websiteID := uuid.New()
	w := doRequest(r, "GET", "/api/websites/"+websiteID.String()+"/brand/preview/ws", nil)
	if w.Code != http.StatusSwitchingProtocols {
		t.Fatalf("expected hub to handle the request, got %d", w.Code)
	}
	if hub.websiteID != websiteID {
		t.Errorf("expected website %s, got %s", websiteID, hub.websiteID)
	}

	expectError(t, doRequest(r, "GET", "/api/websites/abc/brand/preview/ws", nil), http.StatusBadRequest, apierr.CodeValidation)
	if hub.calls != 1 {
		t.Errorf("expected 1 hub call, got %d", hub.calls)
	}
}

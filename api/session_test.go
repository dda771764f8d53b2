package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lectern/lectern/internal/rag"
)

func deleteSession(handler http.Handler, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestClearSessionEndpoint(t *testing.T) {
	svc := &fakeService{}
	handler := newTestServer(svc)

	rec := deleteSession(handler, "11111111-2222-3333-4444-555555555555")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(svc.cleared) != 1 || svc.cleared[0] != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("cleared = %v", svc.cleared)
	}
	if rec.Body.String() != "{\"success\":true}\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestClearSessionEndpoint_InvalidID(t *testing.T) {
	handler := newTestServer(&fakeService{clearErr: rag.ErrInvalidSession})

	rec := deleteSession(handler, "garbage")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

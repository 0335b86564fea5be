package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPathParam(t *testing.T) {
	tests := []struct {
		path, prefix, suffix, want string
	}{
		{"/api/stock/005930", "/api/stock/", "", "005930"},
		{"/api/portfolio/005930/extra", "/api/portfolio/", "", "005930"},
		{"/api/portfolio/", "/api/portfolio/", "", ""},
		{"/api/other/005930", "/api/stock/", "", ""},
		{"/api/portfolio/005930/chart", "/api/portfolio/", "/chart", "005930"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := PathParam(req, tt.prefix, tt.suffix); got != tt.want {
			t.Errorf("PathParam(%q, %q, %q) = %q, want %q", tt.path, tt.prefix, tt.suffix, got, tt.want)
		}
	}
}

func TestDecodeJSON_RejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio", nil)
	rr := httptest.NewRecorder()

	var v map[string]interface{}
	if DecodeJSON(rr, req, &v) {
		t.Fatal("expected DecodeJSON to fail without a body")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(big))
	rr := httptest.NewRecorder()

	var v map[string]interface{}
	if DecodeJSON(rr, req, &v) {
		t.Fatal("expected DecodeJSON to reject a body over 1MB")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestWriteJSON_KeepsHangul(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadRequest, msgDuplicate)

	if !strings.Contains(rr.Body.String(), msgDuplicate) {
		t.Errorf("body = %q, want literal Hangul", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

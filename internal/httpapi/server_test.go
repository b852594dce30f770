package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pland/internal/config"
	v1 "pland/internal/httpapi/v1"
	"pland/internal/plan"
	logx "pland/pkg/logx"
)

func testHandler(cfg config.ServerConfig) http.Handler {
	return NewHandler(cfg, &v1.Handlers{
		Planner: plan.New(logx.Nop()),
		Log:     logx.Nop(),
	})
}

func TestAPIPrefixEnforced(t *testing.T) {
	s := testHandler(config.ServerConfig{})

	// Unversioned path should 404
	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unversioned path, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	rec2 := httptest.NewRecorder()
	s.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 for versioned path, got %d", rec2.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := testHandler(config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := testHandler(config.ServerConfig{RatePerSec: 1, Burst: 1})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	s.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec2.Code)
	}
}

package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxyStripsPrefix(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	rp, err := NewServiceProxy(backend.URL, "/api/auth")
	if err != nil {
		t.Fatalf("NewServiceProxy() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	rec := httptest.NewRecorder()
	rp.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotPath != "/register" {
		t.Errorf("downstream path = %q, want /register", gotPath)
	}
}

func TestProxyBarePrefixBecomesRoot(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer backend.Close()

	rp, err := NewServiceProxy(backend.URL, "/api/auth")
	if err != nil {
		t.Fatalf("NewServiceProxy() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
	rec := httptest.NewRecorder()
	rp.ServeHTTP(rec, req)

	if gotPath != "/" {
		t.Errorf("downstream path = %q, want /", gotPath)
	}
}

func TestProxyUnreachableBackendReturns502(t *testing.T) {
	rp, err := NewServiceProxy("http://127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewServiceProxy() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	rp.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

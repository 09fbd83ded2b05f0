package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromHeadersSetsIdentity(t *testing.T) {
	var got Identity
	var ok bool
	handler := FromHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(UserIDHeader, "cred-123")
	req.Header.Set(UserRolesHeader, "ROLE_USER, ROLE_ADMIN")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("identity missing from context")
	}
	if got.UserID != "cred-123" {
		t.Errorf("UserID = %q", got.UserID)
	}
	if len(got.Roles) != 2 || got.Roles[0] != "ROLE_USER" || got.Roles[1] != "ROLE_ADMIN" {
		t.Errorf("Roles = %v", got.Roles)
	}
}

func TestFromHeadersWithoutHeadersPassesThrough(t *testing.T) {
	var ok bool
	handler := FromHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if ok {
		t.Error("identity present without gateway headers")
	}
}

func TestRequireRejectsAnonymousRequest(t *testing.T) {
	handler := FromHeaders(Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous request reached protected handler")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAllowsIdentifiedRequest(t *testing.T) {
	var reached bool
	handler := FromHeaders(Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(UserIDHeader, "cred-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("identified request did not reach protected handler")
	}
}

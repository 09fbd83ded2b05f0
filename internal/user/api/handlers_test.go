package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alvarowau/social-read/internal/user/domain"
	"github.com/alvarowau/social-read/internal/user/store"
	"github.com/alvarowau/social-read/pkg/identity"
)

type fakeProfileRepo struct {
	nicknameExists bool
	existsErr      error
	profiles       map[string]*domain.Profile
}

func (r *fakeProfileRepo) ExistsByCredentialID(ctx context.Context, credentialID string) (bool, error) {
	return false, nil
}

func (r *fakeProfileRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.nicknameExists, r.existsErr
}

func (r *fakeProfileRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (r *fakeProfileRepo) CreateProfile(ctx context.Context, profile *domain.Profile) (string, error) {
	return "", nil
}

func (r *fakeProfileRepo) FindByNickname(ctx context.Context, nickname string) (*domain.Profile, error) {
	for _, p := range r.profiles {
		if p.Nickname == nickname {
			return p, nil
		}
	}
	return nil, store.ErrProfileNotFound
}

func (r *fakeProfileRepo) FindByCredentialID(ctx context.Context, credentialID string) (*domain.Profile, error) {
	if p, ok := r.profiles[credentialID]; ok {
		return p, nil
	}
	return nil, store.ErrProfileNotFound
}

func TestHandleExistsByNickname(t *testing.T) {
	repo := &fakeProfileRepo{nicknameExists: true}
	router := NewRouter(NewHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/users/exists/nickname/ana", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var exists bool
	if err := json.NewDecoder(rec.Body).Decode(&exists); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !exists {
		t.Error("response = false, want true")
	}
}

func TestHandleGetProfileByNickname(t *testing.T) {
	repo := &fakeProfileRepo{profiles: map[string]*domain.Profile{
		"cred-123": {ID: "profile-1", CredentialID: "cred-123", Nickname: "ana", Email: "ana@example.com"},
	}}
	router := NewRouter(NewHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/users/profile/nickname/ana", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var profile domain.Profile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if profile.Nickname != "ana" {
		t.Errorf("profile nickname = %q", profile.Nickname)
	}
}

func TestHandleGetProfileByNicknameNotFound(t *testing.T) {
	router := NewRouter(NewHandler(&fakeProfileRepo{}))

	req := httptest.NewRequest(http.MethodGet, "/users/profile/nickname/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetOwnProfile(t *testing.T) {
	repo := &fakeProfileRepo{profiles: map[string]*domain.Profile{
		"cred-123": {ID: "profile-1", CredentialID: "cred-123", Nickname: "ana"},
	}}
	router := NewRouter(NewHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(identity.UserIDHeader, "cred-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var profile domain.Profile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if profile.CredentialID != "cred-123" {
		t.Errorf("profile credential = %q", profile.CredentialID)
	}
}

func TestHandleGetOwnProfileWithoutIdentity(t *testing.T) {
	router := NewRouter(NewHandler(&fakeProfileRepo{}))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

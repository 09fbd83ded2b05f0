package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alvarowau/social-read/internal/user/store"
	"github.com/alvarowau/social-read/pkg/identity"
)

// Handler exposes the user-service HTTP surface.
type Handler struct {
	repo store.ProfileRepository
}

// NewHandler creates a new handler for the profile endpoints.
func NewHandler(repo store.ProfileRepository) *Handler {
	return &Handler{repo: repo}
}

// HandleExistsByNickname answers the synchronous uniqueness RPC from the
// auth-service with a bare boolean body.
func (h *Handler) HandleExistsByNickname(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")

	exists, err := h.repo.ExistsByNickname(r.Context(), nickname)
	if err != nil {
		http.Error(w, "Could not check nickname", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(exists)
}

// HandleGetProfileByNickname looks a profile up for GET /users/profile/nickname/{nickname}.
func (h *Handler) HandleGetProfileByNickname(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")

	profile, err := h.repo.FindByNickname(r.Context(), nickname)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not fetch profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// HandleGetOwnProfile returns the caller's profile based on the identity the
// gateway injected.
func (h *Handler) HandleGetOwnProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing gateway identity", http.StatusUnauthorized)
		return
	}

	profile, err := h.repo.FindByCredentialID(r.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not fetch profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

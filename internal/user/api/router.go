package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alvarowau/social-read/pkg/identity"
)

// NewRouter creates the chi router for the user-service. The exists RPC is
// reachable by the auth-service without gateway headers; /users/me trusts
// the identity headers injected by the gateway.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(identity.FromHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User service is healthy"))
	})

	r.Get("/users/exists/nickname/{nickname}", h.HandleExistsByNickname)
	r.Get("/users/profile/nickname/{nickname}", h.HandleGetProfileByNickname)

	r.Group(func(r chi.Router) {
		r.Use(identity.Require)
		r.Get("/users/me", h.HandleGetOwnProfile)
	})

	return r
}

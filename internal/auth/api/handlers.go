package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alvarowau/social-read/internal/auth/app"
	"github.com/alvarowau/social-read/internal/auth/domain"
)

// Handler exposes the auth-service HTTP surface.
type Handler struct {
	service *app.AuthService
}

// NewHandler creates a new handler for the auth endpoints.
func NewHandler(service *app.AuthService) *Handler {
	return &Handler{service: service}
}

// HandleRegister runs the registration saga for POST /register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Register(r.Context(), req); err != nil {
		var badRequest *app.BadRequestError
		if errors.As(err, &badRequest) {
			http.Error(w, badRequest.Message, http.StatusBadRequest)
			return
		}
		http.Error(w, "Registration failed due to an internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "User registered successfully. Profile provisioning has been requested.",
	})
}

// HandleLogin authenticates a credential for POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) || errors.Is(err, app.ErrAccountLocked) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Login failed due to an internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleCheckNickname reports nickname availability in human-readable form
// for GET /check-nickname-existence/{nickname}.
func (h *Handler) HandleCheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")

	exists, err := h.service.NicknameExists(r.Context(), nickname)
	if err != nil {
		http.Error(w, "Could not verify nickname availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if exists {
		fmt.Fprintf(w, "The nickname '%s' is already taken.", nickname)
		return
	}
	fmt.Fprintf(w, "The nickname '%s' is available.", nickname)
}

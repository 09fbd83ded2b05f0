/**
 * @description
 * The gateway's token-trust boundary. Every request either matches a public
 * path and passes through unmodified, or carries a Bearer token that is
 * fully validated before the request is forwarded with trusted identity
 * headers. Nothing reaches a downstream service by any other route.
 */
package filter

import (
	"log"
	"net/http"
	"strings"

	"github.com/alvarowau/social-read/pkg/identity"
	"github.com/alvarowau/social-read/pkg/token"
)

// TokenValidator verifies a token and extracts its claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// Filter is the authentication filter applied to every inbound request.
// It is stateless across requests; the public-path set and validator are
// immutable after construction.
type Filter struct {
	validator   TokenValidator
	publicPaths []string
}

// New creates a filter with a public-path prefix set.
func New(validator TokenValidator, publicPaths []string) *Filter {
	cleaned := make([]string, 0, len(publicPaths))
	for _, p := range publicPaths {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return &Filter{validator: validator, publicPaths: cleaned}
}

// Middleware authenticates a request or rejects it.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Downstream services trust these headers unconditionally, so any
		// client-supplied values must never survive.
		r.Header.Del(identity.UserIDHeader)
		r.Header.Del(identity.UserRolesHeader)

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Printf("Authorization header missing or invalid for path %s", r.URL.Path)
			http.Error(w, "Authorization header is missing or invalid", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			http.Error(w, "Bearer token is empty", http.StatusUnauthorized)
			return
		}

		claims, err := f.validator.Validate(tokenString)
		if err != nil {
			if token.IsUnauthenticated(err) {
				log.Printf("Token rejected for path %s: %v", r.URL.Path, err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			log.Printf("Unexpected error validating token for path %s: %v", r.URL.Path, err)
			http.Error(w, "Token validation failed", http.StatusInternalServerError)
			return
		}

		r.Header.Set(identity.UserIDHeader, claims.Subject)
		if len(claims.Roles) > 0 {
			r.Header.Set(identity.UserRolesHeader, strings.Join(claims.Roles, ","))
		}

		next.ServeHTTP(w, r)
	})
}

func (f *Filter) isPublicPath(path string) bool {
	for _, publicPath := range f.publicPaths {
		if strings.HasPrefix(path, publicPath) {
			return true
		}
	}
	return false
}

/**
 * @description
 * Identity propagation behind the gateway. The gateway converts a validated
 * token into X-User-Id / X-User-Roles headers; downstream services read them
 * here into a request-scoped value instead of re-validating tokens. The
 * headers are authoritative only because the gateway is the sole ingress.
 */
package identity

import (
	"context"
	"net/http"
	"strings"
)

// Header names injected by the gateway.
const (
	UserIDHeader    = "X-User-Id"
	UserRolesHeader = "X-User-Roles"
)

// Identity is the trusted caller identity for one request.
type Identity struct {
	UserID string
	Roles  []string
}

type contextKey string

const identityContextKey contextKey = "gatewayIdentity"

// FromHeaders reads the gateway identity headers into the request context.
// Requests without the headers pass through unauthenticated.
func FromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ident := Identity{UserID: userID, Roles: splitRoles(r.Header.Get(UserRolesHeader))}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityContextKey, ident)))
	})
}

// Require rejects requests that did not arrive with a gateway identity.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized: missing gateway identity", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext returns the caller identity set by FromHeaders.
func FromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityContextKey).(Identity)
	return ident, ok
}

func splitRoles(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		role := strings.TrimSpace(part)
		if role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

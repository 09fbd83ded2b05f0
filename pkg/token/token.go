/**
 * @description
 * HS256 token signing and validation with a pre-shared symmetric key.
 * The auth-service issues tokens here; the gateway validates them and
 * extracts the identity claims it forwards downstream.
 */
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity extracted from a validated token. It is
// request-scoped and never persisted.
type Claims struct {
	Subject string
	Roles   []string
}

// Service signs and validates tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service. ttl is the lifetime of issued tokens.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Generate issues a signed token for the given subject and roles.
func (s *Service) Generate(subject string, roles []string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"roles": roles,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of a token and extracts its
// claims. Errors wrap the jwt sentinel errors so callers can classify them.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	claims := jwt.MapClaims{}

	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	sub, ok := claims["sub"].(string)
	if !ok || strings.TrimSpace(sub) == "" {
		return nil, fmt.Errorf("%w: subject claim missing", jwt.ErrTokenInvalidClaims)
	}

	return &Claims{Subject: sub, Roles: NormalizeRoles(claims["roles"])}, nil
}

// NormalizeRoles accepts the roles claim as a genuine list or a single
// scalar and returns a trimmed list with empty entries dropped.
func NormalizeRoles(claim interface{}) []string {
	var raw []interface{}
	switch v := claim.(type) {
	case nil:
		return nil
	case []interface{}:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	default:
		raw = []interface{}{v}
	}

	roles := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			s = fmt.Sprint(item)
		}
		s = strings.TrimSpace(s)
		if s != "" {
			roles = append(roles, s)
		}
	}
	if len(roles) == 0 {
		return nil
	}
	return roles
}

// IsUnauthenticated reports whether a validation failure should map to an
// unauthenticated rejection. Anything else is an internal fault.
func IsUnauthenticated(err error) bool {
	for _, sentinel := range []error{
		jwt.ErrTokenExpired,
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Role is the closed set of roles a credential can carry.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// AllRoles returns every role the system knows. Used by the startup role
// reconciliation step.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// User is the credential record owned by the auth-service. The nickname is
// stored redundantly with a unique constraint so concurrent registrations
// racing past the synchronous check are caught at commit time.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Nickname            string    `json:"nickname"`
	PasswordHash        string    `json:"-"`
	Enabled             bool      `json:"enabled"`
	FailedLoginAttempts int       `json:"failed_login_attempts"`
	AccountLocked       bool      `json:"account_locked"`
	Roles               []Role    `json:"roles"`
	CreatedAt           time.Time `json:"created_at"`
}

// RegisterRequest is the payload received on POST /register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the request preconditions before the saga touches any
// store.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name cannot be blank")
	}
	if strings.TrimSpace(r.Surname) == "" {
		return errors.New("surname cannot be blank")
	}
	nickname := strings.TrimSpace(r.Nickname)
	if nickname == "" {
		return errors.New("nickname cannot be blank")
	}
	if len(nickname) < 3 || len(nickname) > 30 {
		return errors.New("nickname must be between 3 and 30 characters")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email cannot be blank")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("invalid email format")
	}
	if len(r.Password) < 6 {
		return errors.New("password must be at least 6 characters long")
	}
	if len(r.Password) > 100 {
		return errors.New("password must be at most 100 characters long")
	}
	return nil
}

// LoginRequest is the payload received on POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthenticationResponse is returned on successful login.
type AuthenticationResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

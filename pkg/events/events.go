/**
 * @description
 * Shared wire contracts for the messaging layer. Both producers and consumers
 * import this package so the payload shapes and routing names stay in one place.
 */
package events

import (
	"encoding/json"
	"time"
)

// Exchanges and routing keys shared across services.
const (
	UserEventsExchange    = "user_events"
	UserCreatedRoutingKey = "user.created"

	AuditEventsExchange     = "audit_events"
	AuditRecordedRoutingKey = "audit.recorded"
)

// Action types recorded in the audit trail.
const (
	ActionUserRegisterAttempt = "USER_REGISTER_ATTEMPT"
	ActionUserRegistered      = "USER_REGISTERED"
	ActionUserRegisterFailed  = "USER_REGISTER_FAILED"
	ActionNicknameCheck       = "NICKNAME_AVAILABILITY_CHECK"
	ActionEventPublish        = "EVENT_PUBLISH"
	ActionLoginSuccess        = "LOGIN_SUCCESS"
)

// UserCreatedEvent is published by the auth-service after a credential is
// committed and consumed by the user-service to provision the matching
// profile. It carries no database identity of its own.
type UserCreatedEvent struct {
	CredentialID string `json:"credential_id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
}

// AuditEvent is the wire contract for the audit trail. UserID is nil for
// actions taken before a credential exists. Details is an opaque JSON
// document the sink stores without interpreting.
type AuditEvent struct {
	Timestamp   time.Time       `json:"timestamp"`
	ServiceName string          `json:"service_name"`
	UserID      *string         `json:"user_id,omitempty"`
	ActionType  string          `json:"action_type"`
	Details     json.RawMessage `json:"details,omitempty"`
}

/**
 * @description
 * Registration saga and login for the auth-service. The saga composes the
 * credential store, the synchronous nickname check against the user-service,
 * the provisioning event publish and the audit trail. The credential insert
 * and the event publish form one atomic unit: the insert transaction is only
 * committed after the broker accepts the event, otherwise it is rolled back
 * so no credential exists without a forthcoming profile.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alvarowau/social-read/internal/auth/domain"
	"github.com/alvarowau/social-read/internal/auth/store"
	"github.com/alvarowau/social-read/pkg/audit"
	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/token"
)

// BadRequestError marks failures the caller can fix with different input.
// Everything else surfaces as an internal failure.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

// Business outcomes of the registration saga and login.
var (
	ErrEmailInUse         = &BadRequestError{Message: "email is already in use"}
	ErrNicknameTaken      = &BadRequestError{Message: "nickname is already taken"}
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
)

const maxFailedLogins = 5

// NicknameChecker is the synchronous uniqueness RPC to the user-service.
type NicknameChecker interface {
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
}

// EventPublisher sends domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// AuthService orchestrates registration and login.
type AuthService struct {
	users      store.UserRepository
	roles      store.RoleRepository
	userClient NicknameChecker
	producer   EventPublisher
	auditor    audit.Publisher
	tokens     *token.Service
	rpcTimeout time.Duration
}

// NewAuthService wires the saga's collaborators.
func NewAuthService(
	users store.UserRepository,
	roles store.RoleRepository,
	userClient NicknameChecker,
	producer EventPublisher,
	auditor audit.Publisher,
	tokens *token.Service,
	rpcTimeout time.Duration,
) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		userClient: userClient,
		producer:   producer,
		auditor:    auditor,
		tokens:     tokens,
		rpcTimeout: rpcTimeout,
	}
}

// Register runs the registration saga. It returns nil on success, a
// *BadRequestError for client-caused failures, and any other error for
// internal failures. Every attempt produces exactly one attempt audit
// record and exactly one terminal record, wherever the saga stops.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (err error) {
	attemptDetails := map[string]interface{}{
		"request_email":    req.Email,
		"request_nickname": req.Nickname,
	}
	s.auditor.Publish(ctx, nil, events.ActionUserRegisterAttempt, attemptDetails)

	var actorID *string

	// The terminal FAILED record is emitted here for every aborted branch,
	// with the actor known at the time of failure.
	defer func() {
		if err == nil {
			return
		}
		details := map[string]interface{}{
			"request_email":    req.Email,
			"request_nickname": req.Nickname,
			"failure_reason":   failureReason(err),
			"message":          err.Error(),
		}
		s.auditor.Publish(ctx, actorID, events.ActionUserRegisterFailed, details)
	}()

	if verr := req.Validate(); verr != nil {
		return &BadRequestError{Message: verr.Error()}
	}

	emailTaken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("checking email uniqueness: %w", err)
	}
	if emailTaken {
		return ErrEmailInUse
	}

	nicknameExists, err := s.checkNickname(ctx, req.Nickname, req.Email)
	if err != nil {
		return err
	}
	if nicknameExists {
		return ErrNicknameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	roleID, err := s.roles.FindByName(ctx, domain.RoleUser)
	if err != nil {
		if errors.Is(err, store.ErrRoleNotFound) {
			// Fatal configuration fault: the role table was never seeded.
			log.Printf("CRITICAL: default role '%s' missing from roles table. Operator attention required.", domain.RoleUser)
		}
		return fmt.Errorf("resolving default role: %w", err)
	}

	user := &domain.User{
		Email:        req.Email,
		Nickname:     req.Nickname,
		PasswordHash: string(hash),
		Enabled:      true,
		Roles:        []domain.Role{domain.RoleUser},
	}

	userID, tx, err := s.users.CreateUser(ctx, user, []int64{roleID})
	if err != nil {
		// A duplicate at commit time means a concurrent registration won
		// the race past the synchronous checks. Still a client outcome.
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			return ErrEmailInUse
		case errors.Is(err, store.ErrDuplicateNickname):
			return ErrNicknameTaken
		}
		return fmt.Errorf("persisting credential: %w", err)
	}
	actorID = &userID

	event := events.UserCreatedEvent{
		CredentialID: userID,
		Name:         req.Name,
		Surname:      req.Surname,
		Nickname:     req.Nickname,
		Email:        req.Email,
	}
	pubErr := s.producer.Publish(ctx, events.UserEventsExchange, events.UserCreatedRoutingKey, event)

	publishDetails := map[string]interface{}{
		"event_type":      "UserCreatedEvent",
		"credential_id":   userID,
		"publish_success": pubErr == nil,
	}
	if pubErr != nil {
		publishDetails["message"] = pubErr.Error()
	}
	s.auditor.Publish(ctx, actorID, events.ActionEventPublish, publishDetails)

	if pubErr != nil {
		// An orphaned credential with no forthcoming profile is worse than
		// a failed registration: undo the local commit.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("Error rolling back credential %s after publish failure: %v", userID, rbErr)
		}
		return fmt.Errorf("publishing user.created event: %w", pubErr)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing credential: %w", err)
	}

	s.auditor.Publish(ctx, actorID, events.ActionUserRegistered, map[string]interface{}{
		"registered_email":    req.Email,
		"registered_nickname": req.Nickname,
	})
	log.Printf("User registered successfully with ID: %s", userID)
	return nil
}

// checkNickname performs the synchronous uniqueness RPC under its own
// deadline and audits the outcome unconditionally, success or failure.
func (s *AuthService) checkNickname(ctx context.Context, nickname, email string) (exists bool, err error) {
	details := map[string]interface{}{
		"nickname_to_check":  nickname,
		"registration_email": email,
	}
	defer func() {
		if err != nil {
			details["check_outcome"] = "error"
			details["message"] = err.Error()
		} else {
			details["check_outcome"] = "success"
			details["nickname_exists"] = exists
		}
		s.auditor.Publish(ctx, nil, events.ActionNicknameCheck, details)
	}()

	rpcCtx, cancel := context.WithTimeout(ctx, s.rpcTimeout)
	defer cancel()

	exists, err = s.userClient.ExistsByNickname(rpcCtx, nickname)
	if err != nil {
		return false, fmt.Errorf("nickname check against user service failed: %w", err)
	}
	return exists, nil
}

// NicknameExists exposes the audited uniqueness check for the availability
// endpoint.
func (s *AuthService) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	return s.checkNickname(ctx, nickname, "")
}

// Login verifies credentials and issues a token with the credential id as
// subject. Failed attempts are counted; the account locks after too many.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthenticationResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.AccountLocked {
		return nil, ErrAccountLocked
	}
	if !user.Enabled {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		if recErr := s.users.RecordFailedLogin(ctx, user.ID, maxFailedLogins); recErr != nil {
			log.Printf("Error recording failed login for user %s: %v", user.ID, recErr)
		}
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 {
		if resetErr := s.users.ResetFailedLogins(ctx, user.ID); resetErr != nil {
			log.Printf("Error resetting failed logins for user %s: %v", user.ID, resetErr)
		}
	}

	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, string(role))
	}

	signed, err := s.tokens.Generate(user.ID, roles)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.auditor.Publish(ctx, &user.ID, events.ActionLoginSuccess, map[string]interface{}{
		"authenticated_email": user.Email,
	})

	return &domain.AuthenticationResponse{Token: signed, Email: user.Email}, nil
}

func failureReason(err error) string {
	var badRequest *BadRequestError
	if errors.As(err, &badRequest) {
		return "BadRequest"
	}
	if errors.Is(err, store.ErrRoleNotFound) {
		return "ConfigurationFault"
	}
	return "InternalFailure"
}

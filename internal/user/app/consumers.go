/**
 * @description
 * Provisioning consumer for the user-service. Processes user.created events
 * under at-least-once delivery: duplicates are acknowledged without side
 * effects, uniqueness conflicts are routed to the dead-letter queue for
 * reconciliation (the orphaned credential must not vanish silently), and
 * transient store failures are requeued for the broker's retry policy.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/alvarowau/social-read/internal/user/domain"
	"github.com/alvarowau/social-read/internal/user/store"
	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
)

const handlerTimeout = 30 * time.Second

// ProvisioningHandler processes user.created events into profile rows.
type ProvisioningHandler struct {
	repo store.ProfileRepository
}

// NewProvisioningHandler creates a new instance of ProvisioningHandler.
func NewProvisioningHandler(repo store.ProfileRepository) *ProvisioningHandler {
	return &ProvisioningHandler{repo: repo}
}

// HandleUserCreated is the delivery callback for the user.created queue.
func (h *ProvisioningHandler) HandleUserCreated(body []byte) rabbitmq.Verdict {
	var event events.UserCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error unmarshaling user.created event: %v. Dropping message.", err)
		return rabbitmq.Ack
	}
	if event.CredentialID == "" {
		log.Printf("user.created event without credential_id. Dropping message.")
		return rabbitmq.Ack
	}

	log.Printf("Processing user.created event for credential %s", event.CredentialID)
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// Duplicate delivery is broker noise, not a business event.
	alreadyProvisioned, err := h.repo.ExistsByCredentialID(ctx, event.CredentialID)
	if err != nil {
		log.Printf("Error checking existing profile for credential %s: %v", event.CredentialID, err)
		return rabbitmq.Requeue
	}
	if alreadyProvisioned {
		log.Printf("Profile for credential %s already exists. Skipping duplicate delivery.", event.CredentialID)
		return rabbitmq.Ack
	}

	// Re-validate uniqueness against our own records; the upstream check is
	// stale by the time the event arrives.
	nicknameTaken, err := h.repo.ExistsByNickname(ctx, event.Nickname)
	if err != nil {
		log.Printf("Error checking nickname '%s': %v", event.Nickname, err)
		return rabbitmq.Requeue
	}
	if nicknameTaken {
		log.Printf("Nickname '%s' already taken. Credential %s requires reconciliation.", event.Nickname, event.CredentialID)
		return rabbitmq.DeadLetter
	}

	emailTaken, err := h.repo.ExistsByEmail(ctx, event.Email)
	if err != nil {
		log.Printf("Error checking email for credential %s: %v", event.CredentialID, err)
		return rabbitmq.Requeue
	}
	if emailTaken {
		log.Printf("Email already taken. Credential %s requires reconciliation.", event.CredentialID)
		return rabbitmq.DeadLetter
	}

	profile := &domain.Profile{
		CredentialID: event.CredentialID,
		Name:         event.Name,
		Surname:      event.Surname,
		Nickname:     event.Nickname,
		Email:        event.Email,
	}

	profileID, err := h.repo.CreateProfile(ctx, profile)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateCredential):
			// Lost a redelivery race; the profile exists, which is the goal.
			log.Printf("Profile for credential %s created concurrently. Acknowledging.", event.CredentialID)
			return rabbitmq.Ack
		case errors.Is(err, store.ErrDuplicateNickname), errors.Is(err, store.ErrDuplicateEmail):
			log.Printf("Uniqueness conflict at insert for credential %s: %v. Routing to dead letter.", event.CredentialID, err)
			return rabbitmq.DeadLetter
		}
		log.Printf("Error creating profile for credential %s: %v", event.CredentialID, err)
		return rabbitmq.Requeue
	}

	log.Printf("Profile %s created for credential %s (nickname %s)", profileID, event.CredentialID, event.Nickname)
	return rabbitmq.Ack
}

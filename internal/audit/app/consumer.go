/**
 * @description
 * Audit sink consumer. Appends every decodable record to storage; malformed
 * payloads are logged and dropped, and a persistence failure never blocks
 * consumption of subsequent records, because the trail is diagnostic rather
 * than authoritative state.
 */
package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/alvarowau/social-read/internal/audit/store"
	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
)

const appendTimeout = 15 * time.Second

// AuditEventHandler persists audit records delivered from the audit topic.
type AuditEventHandler struct {
	repo store.AuditRepository
}

// NewAuditEventHandler creates a new instance of AuditEventHandler.
func NewAuditEventHandler(repo store.AuditRepository) *AuditEventHandler {
	return &AuditEventHandler{repo: repo}
}

// HandleAuditEvent is the delivery callback for the audit queue.
func (h *AuditEventHandler) HandleAuditEvent(body []byte) rabbitmq.Verdict {
	var record events.AuditEvent
	if err := json.Unmarshal(body, &record); err != nil {
		log.Printf("Malformed audit payload, dropping: %v", err)
		return rabbitmq.Ack
	}
	if record.ActionType == "" {
		log.Printf("Audit payload without action_type, dropping")
		return rabbitmq.Ack
	}

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	id, err := h.repo.Append(ctx, &record)
	if err != nil {
		log.Printf("Failed to persist audit record (action %s, service %s): %v", record.ActionType, record.ServiceName, err)
		return rabbitmq.Ack
	}

	log.Printf("Audit record %d stored: action %s from %s", id, record.ActionType, record.ServiceName)
	return rabbitmq.Ack
}

/**
 * @description
 * Fire-and-forget audit publication. Every saga step emits a record through
 * this package; a failed publish is logged and never fails the business
 * path, because the audit trail is diagnostic rather than authoritative.
 */
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
)

// Publisher emits audit records. userID is nil for actions taken before a
// credential exists.
type Publisher interface {
	Publish(ctx context.Context, userID *string, actionType string, details map[string]interface{})
}

// EventPublisher sends audit records to the audit exchange.
type EventPublisher struct {
	producer    rabbitmq.Publisher
	serviceName string
}

// NewEventPublisher creates a publisher that stamps records with the
// originating service name.
func NewEventPublisher(producer rabbitmq.Publisher, serviceName string) *EventPublisher {
	return &EventPublisher{producer: producer, serviceName: serviceName}
}

// Publish serializes details and sends the record. Never returns an error.
func (p *EventPublisher) Publish(ctx context.Context, userID *string, actionType string, details map[string]interface{}) {
	var payload json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			log.Printf("AUDIT: failed to serialize details for action %s: %v", actionType, err)
			b = []byte(`{"error":"failed to serialize details"}`)
		}
		payload = b
	}

	record := events.AuditEvent{
		Timestamp:   time.Now().UTC(),
		ServiceName: p.serviceName,
		UserID:      userID,
		ActionType:  actionType,
		Details:     payload,
	}

	if err := p.producer.Publish(ctx, events.AuditEventsExchange, events.AuditRecordedRoutingKey, record); err != nil {
		log.Printf("AUDIT: failed to publish %s event: %v", actionType, err)
	}
}

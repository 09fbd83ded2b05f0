package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
)

type fakeAuditRepo struct {
	appended []*events.AuditEvent
	err      error
}

func (r *fakeAuditRepo) Append(ctx context.Context, record *events.AuditEvent) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.appended = append(r.appended, record)
	return int64(len(r.appended)), nil
}

func recordBody(t *testing.T, record events.AuditEvent) []byte {
	t.Helper()
	body, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshaling record: %v", err)
	}
	return body
}

func TestHandleAuditEventPersistsRecord(t *testing.T) {
	repo := &fakeAuditRepo{}
	handler := NewAuditEventHandler(repo)

	userID := "cred-123"
	body := recordBody(t, events.AuditEvent{
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ServiceName: "auth-service",
		UserID:      &userID,
		ActionType:  events.ActionUserRegistered,
		Details:     json.RawMessage(`{"registered_email":"ana@example.com"}`),
	})

	if got := handler.HandleAuditEvent(body); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack", got)
	}
	if len(repo.appended) != 1 {
		t.Fatalf("appended %d records, want 1", len(repo.appended))
	}
	stored := repo.appended[0]
	if stored.ActionType != events.ActionUserRegistered || stored.ServiceName != "auth-service" {
		t.Errorf("unexpected record: %+v", stored)
	}
	if stored.UserID == nil || *stored.UserID != "cred-123" {
		t.Error("user id lost on the way to storage")
	}
}

func TestHandleAuditEventMalformedDropped(t *testing.T) {
	repo := &fakeAuditRepo{}
	handler := NewAuditEventHandler(repo)

	if got := handler.HandleAuditEvent([]byte("not json")); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack (drop)", got)
	}
	if len(repo.appended) != 0 {
		t.Error("malformed payload was persisted")
	}
}

func TestHandleAuditEventMissingActionTypeDropped(t *testing.T) {
	repo := &fakeAuditRepo{}
	handler := NewAuditEventHandler(repo)

	if got := handler.HandleAuditEvent([]byte(`{"service_name":"auth-service"}`)); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack (drop)", got)
	}
	if len(repo.appended) != 0 {
		t.Error("record without action type was persisted")
	}
}

func TestHandleAuditEventFillsMissingTimestamp(t *testing.T) {
	repo := &fakeAuditRepo{}
	handler := NewAuditEventHandler(repo)

	body := recordBody(t, events.AuditEvent{
		ServiceName: "auth-service",
		ActionType:  events.ActionLoginSuccess,
	})

	before := time.Now().UTC()
	if got := handler.HandleAuditEvent(body); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack", got)
	}
	after := time.Now().UTC()

	if len(repo.appended) != 1 {
		t.Fatalf("appended %d records, want 1", len(repo.appended))
	}
	ts := repo.appended[0].Timestamp
	if ts.Before(before) || ts.After(after) {
		t.Errorf("filled timestamp %v outside [%v, %v]", ts, before, after)
	}
}

// A sink outage must not wedge the stream behind one poisoned delivery.
func TestHandleAuditEventPersistenceFailureStillAcks(t *testing.T) {
	repo := &fakeAuditRepo{err: errors.New("connection refused")}
	handler := NewAuditEventHandler(repo)

	body := recordBody(t, events.AuditEvent{
		ServiceName: "auth-service",
		ActionType:  events.ActionLoginSuccess,
	})

	if got := handler.HandleAuditEvent(body); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack", got)
	}
}

package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alvarowau/social-read/internal/user/domain"
	"github.com/alvarowau/social-read/internal/user/store"
	"github.com/alvarowau/social-read/pkg/events"
	"github.com/alvarowau/social-read/pkg/rabbitmq"
)

type fakeProfileRepo struct {
	credentialExists bool
	nicknameExists   bool
	emailExists      bool
	existsErr        error
	createErr        error
	created          *domain.Profile
}

func (r *fakeProfileRepo) ExistsByCredentialID(ctx context.Context, credentialID string) (bool, error) {
	return r.credentialExists, r.existsErr
}

func (r *fakeProfileRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.nicknameExists, nil
}

func (r *fakeProfileRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.emailExists, nil
}

func (r *fakeProfileRepo) CreateProfile(ctx context.Context, profile *domain.Profile) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	r.created = profile
	return "profile-1", nil
}

func (r *fakeProfileRepo) FindByNickname(ctx context.Context, nickname string) (*domain.Profile, error) {
	return nil, store.ErrProfileNotFound
}

func (r *fakeProfileRepo) FindByCredentialID(ctx context.Context, credentialID string) (*domain.Profile, error) {
	return nil, store.ErrProfileNotFound
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(events.UserCreatedEvent{
		CredentialID: "cred-123",
		Name:         "Ana",
		Surname:      "Torres",
		Nickname:     "anatorres",
		Email:        "ana@example.com",
	})
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	return body
}

func TestHandleUserCreatedProvisionsProfile(t *testing.T) {
	repo := &fakeProfileRepo{}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack", got)
	}
	if repo.created == nil {
		t.Fatal("no profile was created")
	}
	if repo.created.CredentialID != "cred-123" || repo.created.Nickname != "anatorres" {
		t.Errorf("unexpected profile: %+v", repo.created)
	}
}

func TestHandleUserCreatedMalformedPayloadDropped(t *testing.T) {
	repo := &fakeProfileRepo{}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated([]byte("{not json")); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack (drop)", got)
	}
	if repo.created != nil {
		t.Error("profile created from malformed payload")
	}
}

func TestHandleUserCreatedMissingCredentialIDDropped(t *testing.T) {
	repo := &fakeProfileRepo{}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated([]byte(`{"nickname":"ana"}`)); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack (drop)", got)
	}
	if repo.created != nil {
		t.Error("profile created without a credential id")
	}
}

// Redelivery of an already-provisioned credential is acknowledged without a
// second insert.
func TestHandleUserCreatedDuplicateDelivery(t *testing.T) {
	repo := &fakeProfileRepo{credentialExists: true}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack", got)
	}
	if repo.created != nil {
		t.Error("duplicate delivery created a second profile")
	}
}

func TestHandleUserCreatedNicknameConflictDeadLetters(t *testing.T) {
	repo := &fakeProfileRepo{nicknameExists: true}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.DeadLetter {
		t.Fatalf("verdict = %v, want DeadLetter", got)
	}
	if repo.created != nil {
		t.Error("profile created despite nickname conflict")
	}
}

func TestHandleUserCreatedEmailConflictDeadLetters(t *testing.T) {
	repo := &fakeProfileRepo{emailExists: true}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.DeadLetter {
		t.Fatalf("verdict = %v, want DeadLetter", got)
	}
}

func TestHandleUserCreatedTransientStoreErrorRequeues(t *testing.T) {
	repo := &fakeProfileRepo{existsErr: context.DeadlineExceeded}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.Requeue {
		t.Fatalf("verdict = %v, want Requeue", got)
	}
}

// Losing the insert race to a concurrent redelivery still means the profile
// exists, so the delivery is complete.
func TestHandleUserCreatedConcurrentInsertAcked(t *testing.T) {
	repo := &fakeProfileRepo{createErr: store.ErrDuplicateCredential}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.Ack {
		t.Fatalf("verdict = %v, want Ack", got)
	}
}

func TestHandleUserCreatedInsertConflictDeadLetters(t *testing.T) {
	repo := &fakeProfileRepo{createErr: store.ErrDuplicateNickname}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.DeadLetter {
		t.Fatalf("verdict = %v, want DeadLetter", got)
	}
}

func TestHandleUserCreatedInsertFailureRequeues(t *testing.T) {
	repo := &fakeProfileRepo{createErr: context.DeadlineExceeded}
	handler := NewProvisioningHandler(repo)

	if got := handler.HandleUserCreated(eventBody(t)); got != rabbitmq.Requeue {
		t.Fatalf("verdict = %v, want Requeue", got)
	}
}

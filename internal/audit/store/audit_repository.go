package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarowau/social-read/pkg/events"
)

// AuditRepository appends audit records. The trail is append-only: records
// are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, record *events.AuditEvent) (int64, error)
}

// PostgresAuditRepository is the PostgreSQL implementation of AuditRepository.
type PostgresAuditRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAuditRepository creates a new instance of PostgresAuditRepository.
func NewPostgresAuditRepository(db *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Append inserts one record and returns its generated identifier.
func (r *PostgresAuditRepository) Append(ctx context.Context, record *events.AuditEvent) (int64, error) {
	details := []byte(record.Details)
	if len(details) == 0 {
		details = nil
	}

	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO audit_events (event_timestamp, service_name, user_id, action_type, details)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, record.Timestamp, record.ServiceName, record.UserID, record.ActionType, details).Scan(&id)
	if err != nil {
		log.Printf("Error inserting audit record: %v", err)
		return 0, err
	}
	return id, nil
}

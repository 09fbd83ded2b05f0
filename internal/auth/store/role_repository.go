package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarowau/social-read/internal/auth/domain"
)

// ErrRoleNotFound indicates a role row is missing. For the default role this
// is a configuration fault, not a user-facing condition.
var ErrRoleNotFound = errors.New("role not found")

// RoleRepository resolves the closed role set against its persisted rows.
type RoleRepository interface {
	FindByName(ctx context.Context, name domain.Role) (int64, error)
	EnsureRoles(ctx context.Context) error
}

// PostgresRoleRepository is the PostgreSQL implementation of RoleRepository.
type PostgresRoleRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRoleRepository creates a new instance of PostgresRoleRepository.
func NewPostgresRoleRepository(db *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

// FindByName returns the id of a persisted role.
func (r *PostgresRoleRepository) FindByName(ctx context.Context, name domain.Role) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, string(name)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRoleNotFound
		}
		return 0, err
	}
	return id, nil
}

// EnsureRoles reconciles the closed role set with the roles table at
// startup. Seeding is idempotent.
func (r *PostgresRoleRepository) EnsureRoles(ctx context.Context) error {
	for _, role := range domain.AllRoles() {
		tag, err := r.db.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, string(role))
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			log.Printf("Role '%s' created and saved", role)
		}
	}
	return nil
}

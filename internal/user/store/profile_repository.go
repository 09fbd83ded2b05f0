/**
 * @description
 * Data access layer for user profiles. The unique constraints on
 * credential_id, nickname and email are the last line of defense against
 * races the upstream checks cannot see; violations are classified here so
 * the consumer can decide between a no-op and a dead-letter.
 */
package store

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarowau/social-read/internal/user/domain"
)

// Storage errors classified from unique constraint violations.
var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrDuplicateCredential  = errors.New("profile already exists for credential")
	ErrDuplicateNickname    = errors.New("nickname already in use")
	ErrDuplicateEmail       = errors.New("email already in use")
)

// ProfileRepository defines the profile storage operations.
type ProfileRepository interface {
	ExistsByCredentialID(ctx context.Context, credentialID string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateProfile(ctx context.Context, profile *domain.Profile) (string, error)
	FindByNickname(ctx context.Context, nickname string) (*domain.Profile, error)
	FindByCredentialID(ctx context.Context, credentialID string) (*domain.Profile, error)
}

// PostgresProfileRepository is the PostgreSQL implementation of ProfileRepository.
type PostgresProfileRepository struct {
	db *pgxpool.Pool
}

// NewPostgresProfileRepository creates a new instance of PostgresProfileRepository.
func NewPostgresProfileRepository(db *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) ExistsByCredentialID(ctx context.Context, credentialID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE credential_id = $1)`, credentialID)
}

func (r *PostgresProfileRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE nickname = $1)`, nickname)
}

func (r *PostgresProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE email = $1)`, email)
}

func (r *PostgresProfileRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		log.Printf("Error running existence check: %v", err)
		return false, err
	}
	return exists, nil
}

// CreateProfile inserts a new profile and returns its generated id.
func (r *PostgresProfileRepository) CreateProfile(ctx context.Context, profile *domain.Profile) (string, error) {
	profileID := uuid.NewString()
	_, err := r.db.Exec(ctx, `
        INSERT INTO user_profiles (id, credential_id, name, surname, nickname, email)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, profileID, profile.CredentialID, profile.Name, profile.Surname, profile.Nickname, profile.Email)
	if err != nil {
		return "", classifyUniqueViolation(err)
	}
	return profileID, nil
}

func (r *PostgresProfileRepository) FindByNickname(ctx context.Context, nickname string) (*domain.Profile, error) {
	return r.find(ctx, `
        SELECT id, credential_id, name, surname, nickname, email, created_at
        FROM user_profiles WHERE nickname = $1
    `, nickname)
}

func (r *PostgresProfileRepository) FindByCredentialID(ctx context.Context, credentialID string) (*domain.Profile, error) {
	return r.find(ctx, `
        SELECT id, credential_id, name, surname, nickname, email, created_at
        FROM user_profiles WHERE credential_id = $1
    `, credentialID)
}

func (r *PostgresProfileRepository) find(ctx context.Context, query, arg string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.CredentialID,
		&profile.Name,
		&profile.Surname,
		&profile.Nickname,
		&profile.Email,
		&profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		log.Printf("Error fetching profile: %v", err)
		return nil, err
	}
	return &profile, nil
}

func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		log.Printf("Unique constraint violation: %s", pgErr.ConstraintName)
		switch {
		case strings.Contains(pgErr.ConstraintName, "credential"):
			return ErrDuplicateCredential
		case strings.Contains(pgErr.ConstraintName, "nickname"):
			return ErrDuplicateNickname
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		}
	}
	return err
}

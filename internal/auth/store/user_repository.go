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

	"github.com/alvarowau/social-read/internal/auth/domain"
)

// Storage errors the service layer classifies into caller-facing outcomes.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateNickname = errors.New("nickname already registered")
)

// RegistrationTx is the open transaction returned by CreateUser. The caller
// commits after the provisioning event is accepted by the broker, or rolls
// back so no orphaned credential survives a publish failure.
type RegistrationTx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UserRepository defines the credential storage operations the auth-service
// needs.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User, roleIDs []int64) (string, RegistrationTx, error)
	RecordFailedLogin(ctx context.Context, userID string, lockThreshold int) error
	ResetFailedLogins(ctx context.Context, userID string) error
}

// PostgresUserRepository is the PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new instance of PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// ExistsByEmail reports whether a credential with this email already exists.
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		log.Printf("Error checking email existence: %v", err)
		return false, err
	}
	return exists, nil
}

// FindByEmail loads a credential and its roles.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, `
        SELECT id, email, nickname, password_hash, enabled, failed_login_attempts, account_locked, created_at
        FROM users WHERE email = $1
    `, email).Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.PasswordHash,
		&user.Enabled,
		&user.FailedLoginAttempts,
		&user.AccountLocked,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Printf("Error fetching user by email: %v", err)
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
        SELECT r.name FROM roles r
        JOIN user_roles ur ON ur.role_id = r.id
        WHERE ur.user_id = $1
    `, user.ID)
	if err != nil {
		log.Printf("Error fetching roles for user %s: %v", user.ID, err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, domain.Role(name))
	}
	return &user, rows.Err()
}

// CreateUser inserts a credential and its role links inside a transaction
// that is left open; the returned RegistrationTx decides its fate. Unique
// constraint violations are classified by the constraint that fired.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *domain.User, roleIDs []int64) (string, RegistrationTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", nil, err
	}

	userID := uuid.NewString()
	_, err = tx.Exec(ctx, `
        INSERT INTO users (id, email, nickname, password_hash, enabled, failed_login_attempts, account_locked)
        VALUES ($1, $2, $3, $4, $5, 0, false)
    `, userID, user.Email, user.Nickname, user.PasswordHash, user.Enabled)
	if err != nil {
		tx.Rollback(ctx)
		return "", nil, classifyUniqueViolation(err)
	}

	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
			tx.Rollback(ctx)
			log.Printf("Error linking role %d to user %s: %v", roleID, userID, err)
			return "", nil, err
		}
	}

	return userID, tx, nil
}

// RecordFailedLogin increments the failure counter and locks the account
// once the threshold is reached.
func (r *PostgresUserRepository) RecordFailedLogin(ctx context.Context, userID string, lockThreshold int) error {
	_, err := r.db.Exec(ctx, `
        UPDATE users
        SET failed_login_attempts = failed_login_attempts + 1,
            account_locked = (failed_login_attempts + 1 >= $2)
        WHERE id = $1
    `, userID, lockThreshold)
	return err
}

// ResetFailedLogins clears the failure counter after a successful login.
func (r *PostgresUserRepository) ResetFailedLogins(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET failed_login_attempts = 0 WHERE id = $1`, userID)
	return err
}

func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		log.Printf("Unique constraint violation: %s", pgErr.ConstraintName)
		if strings.Contains(pgErr.ConstraintName, "nickname") {
			return ErrDuplicateNickname
		}
		return ErrDuplicateEmail
	}
	return err
}

package userinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository is the PostgreSQL implementation of UserRepository.
//
// tenant_id is NULL for central-scope users; the queries translate between
// NULL and the empty kernel.TenantID so scope always rides along explicitly.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new user repository instance.
func NewPostgresUserRepository(db *sqlx.DB) user.UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

// FindByID looks up a user by ID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	query := `
		SELECT
			id, COALESCE(tenant_id, '') AS tenant_id, email, name,
			password_hash, role, email_verified_at, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}

	return &u, nil
}

// FindByEmail looks up a user by email within a scope.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (*user.User, error) {
	query := `
		SELECT
			id, COALESCE(tenant_id, '') AS tenant_id, email, name,
			password_hash, role, email_verified_at, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
		  AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, email, tenantID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal).
			WithDetail("email", email)
	}

	return &u, nil
}

// ExistsByEmail reports whether a user exists for (tenant, email).
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users
			WHERE LOWER(email) = LOWER($1)
			  AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email, tenantID.String())
	if err != nil {
		return false, errx.Wrap(err, "failed to check user existence", errx.TypeInternal).
			WithDetail("email", email)
	}

	return exists, nil
}

// Save inserts or updates a user.
func (r *PostgresUserRepository) Save(ctx context.Context, u user.User) error {
	exists, err := r.userExists(ctx, u.ID)
	if err != nil {
		return errx.Wrap(err, "failed to check user existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, u)
	}
	return r.create(ctx, u)
}

func (r *PostgresUserRepository) create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (
			id, tenant_id, email, name, password_hash, role,
			email_verified_at, created_at, updated_at
		) VALUES (
			$1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID.String(), u.TenantID.String(), u.Email, u.Name,
		u.PasswordHash, u.Role, u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return user.ErrUserAlreadyExists().
					WithDetail("email", u.Email)
			}
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}

	return nil
}

func (r *PostgresUserRepository) update(ctx context.Context, u user.User) error {
	query := `
		UPDATE users SET
			email = $2,
			name = $3,
			password_hash = $4,
			role = $5,
			email_verified_at = $6,
			updated_at = $7
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		u.ID.String(), u.Email, u.Name, u.PasswordHash,
		u.Role, u.EmailVerifiedAt, u.UpdatedAt,
	)
	if err != nil {
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return user.ErrUserNotFound().WithDetail("user_id", u.ID.String())
	}

	return nil
}

func (r *PostgresUserRepository) userExists(ctx context.Context, id kernel.UserID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, id.String())
	if err != nil {
		return false, errx.Wrap(err, "failed to check user existence", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}

	return exists, nil
}

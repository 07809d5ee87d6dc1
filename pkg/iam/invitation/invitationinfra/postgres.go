package invitationinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const selectColumns = `
	id, COALESCE(tenant_id, '') AS tenant_id, email, role, token, status,
	invited_by, expires_at, accepted_at, created_at, updated_at
	`

// PostgresInvitationRepository is the PostgreSQL implementation of
// InvitationRepository.
//
// tenant_id is NULL for central-scoped invitations, mirroring the users
// table. Acceptance is a single transaction built around a conditional
// UPDATE, so the PENDING -> ACCEPTED edge is taken exactly once no matter
// how many requests race on the same token.
type PostgresInvitationRepository struct {
	db *sqlx.DB
}

// NewPostgresInvitationRepository creates a new invitation repository instance.
func NewPostgresInvitationRepository(db *sqlx.DB) invitation.InvitationRepository {
	return &PostgresInvitationRepository{
		db: db,
	}
}

// FindByID looks up an invitation by ID.
func (r *PostgresInvitationRepository) FindByID(ctx context.Context, id kernel.InvitationID) (*invitation.Invitation, error) {
	query := `SELECT` + selectColumns + `FROM user_invitations WHERE id = $1`

	var inv invitation.Invitation
	err := r.db.GetContext(ctx, &inv, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invitation.ErrInvitationNotFound().WithDetail("invitation_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find invitation by id", errx.TypeInternal).
			WithDetail("invitation_id", id.String())
	}

	return &inv, nil
}

// FindByToken looks up an invitation by its acceptance token.
func (r *PostgresInvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	query := `SELECT` + selectColumns + `FROM user_invitations WHERE token = $1`

	var inv invitation.Invitation
	err := r.db.GetContext(ctx, &inv, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to find invitation by token", errx.TypeInternal)
	}

	return &inv, nil
}

// FindByTenant lists a tenant's invitations, newest first.
func (r *PostgresInvitationRepository) FindByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}

	countQuery := `
		SELECT COUNT(*) FROM user_invitations
		WHERE tenant_id IS NOT DISTINCT FROM NULLIF($1, '')`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, tenantID.String()); err != nil {
		return kernel.Paginated[invitation.Invitation]{}, errx.Wrap(err, "failed to count invitations", errx.TypeInternal).
			WithDetail("tenant_id", tenantID.String())
	}

	query := `SELECT` + selectColumns + `
		FROM user_invitations
		WHERE tenant_id IS NOT DISTINCT FROM NULLIF($1, '')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var invitations []invitation.Invitation
	offset := (opts.Page - 1) * opts.PageSize
	err := r.db.SelectContext(ctx, &invitations, query, tenantID.String(), opts.PageSize, offset)
	if err != nil {
		return kernel.Paginated[invitation.Invitation]{}, errx.Wrap(err, "failed to list invitations", errx.TypeInternal).
			WithDetail("tenant_id", tenantID.String())
	}

	return kernel.NewPaginated(invitations, opts.Page, opts.PageSize, total), nil
}

// ExistsPendingForEmail reports whether an unexpired pending invitation
// exists for (tenant, email).
func (r *PostgresInvitationRepository) ExistsPendingForEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_invitations
			WHERE LOWER(email) = LOWER($1)
			  AND tenant_id IS NOT DISTINCT FROM NULLIF($2, '')
			  AND status = 'PENDING'
			  AND expires_at > NOW()
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email, tenantID.String())
	if err != nil {
		return false, errx.Wrap(err, "failed to check pending invitation", errx.TypeInternal).
			WithDetail("email", email)
	}

	return exists, nil
}

// Save inserts or updates an invitation.
func (r *PostgresInvitationRepository) Save(ctx context.Context, inv invitation.Invitation) error {
	query := `
		INSERT INTO user_invitations (
			id, tenant_id, email, role, token, status, invited_by,
			expires_at, accepted_at, created_at, updated_at
		) VALUES (
			$1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			accepted_at = EXCLUDED.accepted_at,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID.String(), inv.TenantID.String(), inv.Email, inv.Role, inv.Token,
		inv.Status, inv.InvitedBy.String(), inv.ExpiresAt, inv.AcceptedAt,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return invitation.ErrAlreadyPending().WithDetail("email", inv.Email)
		}
		return errx.Wrap(err, "failed to save invitation", errx.TypeInternal).
			WithDetail("invitation_id", inv.ID.String())
	}

	return nil
}

// ConsumePending atomically accepts the invitation and creates the invited
// account. The conditional UPDATE is the linearization point: the row flips
// PENDING -> ACCEPTED for exactly one transaction, every other racer matches
// zero rows and gets classified by a follow-up read.
func (r *PostgresInvitationRepository) ConsumePending(ctx context.Context, token string, newUser user.User) (*invitation.Invitation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errx.Wrap(err, "failed to begin accept transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	acceptQuery := `
		UPDATE user_invitations SET
			status = 'ACCEPTED',
			accepted_at = NOW(),
			updated_at = NOW()
		WHERE token = $1 AND status = 'PENDING' AND expires_at > NOW()
		RETURNING` + selectColumns

	var inv invitation.Invitation
	err = tx.GetContext(ctx, &inv, acceptQuery, token)
	if err == sql.ErrNoRows {
		return nil, r.classifyLoss(ctx, token)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to accept invitation", errx.TypeInternal)
	}

	insertQuery := `
		INSERT INTO users (
			id, tenant_id, email, name, password_hash, role,
			email_verified_at, created_at, updated_at
		) VALUES (
			$1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9
		)`

	_, err = tx.ExecContext(ctx, insertQuery,
		newUser.ID.String(), newUser.TenantID.String(), newUser.Email, newUser.Name,
		newUser.PasswordHash, newUser.Role, newUser.EmailVerifiedAt,
		newUser.CreatedAt, newUser.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, user.ErrUserAlreadyExists().WithDetail("email", newUser.Email)
		}
		return nil, errx.Wrap(err, "failed to create invited user", errx.TypeInternal)
	}

	if err := tx.Commit(); err != nil {
		return nil, errx.Wrap(err, "failed to commit accept transaction", errx.TypeInternal)
	}

	return &inv, nil
}

// classifyLoss runs outside the losing transaction to tell the caller what
// the accept raced against.
func (r *PostgresInvitationRepository) classifyLoss(ctx context.Context, token string) error {
	inv, err := r.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv.IsAccepted() {
		return invitation.ErrAlreadyAccepted()
	}
	if inv.IsExpired() {
		return invitation.ErrExpired()
	}
	return invitation.ErrInvitationNotFound()
}

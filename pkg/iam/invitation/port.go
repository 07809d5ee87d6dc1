package invitation

import (
	"context"

	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// InvitationRepository defines the contract for invitation persistence.
type InvitationRepository interface {
	// FindByID looks up an invitation by ID.
	FindByID(ctx context.Context, id kernel.InvitationID) (*Invitation, error)

	// FindByToken looks up an invitation by its acceptance token.
	FindByToken(ctx context.Context, token string) (*Invitation, error)

	// FindByTenant lists a tenant's invitations, newest first. An empty
	// tenant ID lists central-scoped invitations.
	FindByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[Invitation], error)

	// ExistsPendingForEmail reports whether an unexpired pending
	// invitation exists for (tenant, email).
	ExistsPendingForEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error)

	// Save inserts or updates an invitation.
	Save(ctx context.Context, inv Invitation) error

	// ConsumePending atomically accepts the pending, unexpired invitation
	// holding the token and creates the invited account, in one
	// transaction. Exactly one caller can ever succeed per invitation;
	// the rest see ErrAlreadyAccepted, ErrExpired, ErrInvitationNotFound
	// or user.ErrUserAlreadyExists depending on what they lost to.
	ConsumePending(ctx context.Context, token string, newUser user.User) (*Invitation, error)
}

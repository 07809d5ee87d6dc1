package user

import (
	"context"

	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	// FindByID looks up a user by ID.
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)

	// FindByEmail looks up a user by email within a scope. An empty
	// tenant ID searches the central scope.
	FindByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (*User, error)

	// ExistsByEmail reports whether a user exists for (tenant, email).
	ExistsByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error)

	// Save inserts or updates a user. Inserts violating the
	// (tenant_id, email) uniqueness return ErrUserAlreadyExists.
	Save(ctx context.Context, u User) error
}

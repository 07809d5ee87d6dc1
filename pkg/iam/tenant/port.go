package tenant

import (
	"context"

	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// TenantRepository defines the contract for tenant persistence.
type TenantRepository interface {
	// FindByID looks up a tenant by ID.
	FindByID(ctx context.Context, id kernel.TenantID) (*Tenant, error)

	// FindByDomain looks up the tenant owning a domain. The domain is
	// matched exactly (callers normalize the host first).
	FindByDomain(ctx context.Context, domain string) (*Tenant, error)

	// FindPrimaryDomain returns the tenant's primary domain record.
	FindPrimaryDomain(ctx context.Context, id kernel.TenantID) (*Domain, error)

	// FindDomains returns every domain owned by a tenant.
	FindDomains(ctx context.Context, id kernel.TenantID) ([]*Domain, error)
}

// Resolver is the read side used by the request path: host → tenant.
// NotFound is a hard failure for the caller; there is no default tenant.
type Resolver interface {
	// ResolveDomain binds a normalized host to a tenant.
	ResolveDomain(ctx context.Context, host string) (kernel.TenantID, error)

	// PrimaryDomain returns the host redirects toward a tenant should use.
	PrimaryDomain(ctx context.Context, id kernel.TenantID) (string, error)
}

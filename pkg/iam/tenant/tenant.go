package tenant

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// ============================================================================
// Domain Model
// ============================================================================

// TenantStatus represents the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
)

// Tenant is an organization provisioned from the central directory.
type Tenant struct {
	ID        kernel.TenantID `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Status    TenantStatus    `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the tenant may serve traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Domain binds one host to a tenant. A tenant may own several domains; one
// of them is primary and used when building redirects toward the tenant.
type Domain struct {
	ID        string          `db:"id" json:"id"`
	TenantID  kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Domain    string          `db:"domain" json:"domain"`
	IsPrimary bool            `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TENANT")

var (
	CodeTenantNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Tenant not found")
	CodeDomainNotFound  = ErrRegistry.Register("DOMAIN_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Domain not registered")
	CodeTenantSuspended = ErrRegistry.Register("SUSPENDED", errx.TypeAuthorization, http.StatusForbidden, "Tenant is suspended")
	CodeNoPrimaryDomain = ErrRegistry.Register("NO_PRIMARY_DOMAIN", errx.TypeBusiness, http.StatusUnprocessableEntity, "Tenant has no primary domain")
)

func ErrTenantNotFound() *errx.Error {
	return ErrRegistry.New(CodeTenantNotFound)
}

func ErrDomainNotFound() *errx.Error {
	return ErrRegistry.New(CodeDomainNotFound)
}

func ErrTenantSuspended() *errx.Error {
	return ErrRegistry.New(CodeTenantSuspended)
}

func ErrNoPrimaryDomain() *errx.Error {
	return ErrRegistry.New(CodeNoPrimaryDomain)
}

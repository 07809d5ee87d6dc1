package tenantinfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/tenant"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresTenantRepository is the PostgreSQL implementation of TenantRepository.
type PostgresTenantRepository struct {
	db *sqlx.DB
}

// NewPostgresTenantRepository creates a new tenant repository instance.
func NewPostgresTenantRepository(db *sqlx.DB) tenant.TenantRepository {
	return &PostgresTenantRepository{
		db: db,
	}
}

// FindByID looks up a tenant by ID.
func (r *PostgresTenantRepository) FindByID(ctx context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var t tenant.Tenant
	err := r.db.GetContext(ctx, &t, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tenant.ErrTenantNotFound().WithDetail("tenant_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find tenant by id", errx.TypeInternal).
			WithDetail("tenant_id", id.String())
	}

	return &t, nil
}

// FindByDomain looks up the tenant owning a domain.
func (r *PostgresTenantRepository) FindByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	query := `
		SELECT t.id, t.name, t.status, t.created_at, t.updated_at
		FROM tenants t
		JOIN tenant_domains d ON d.tenant_id = t.id
		WHERE d.domain = $1`

	var t tenant.Tenant
	err := r.db.GetContext(ctx, &t, query, domain)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tenant.ErrDomainNotFound().WithDetail("domain", domain)
		}
		return nil, errx.Wrap(err, "failed to find tenant by domain", errx.TypeInternal).
			WithDetail("domain", domain)
	}

	return &t, nil
}

// FindPrimaryDomain returns the tenant's primary domain record.
func (r *PostgresTenantRepository) FindPrimaryDomain(ctx context.Context, id kernel.TenantID) (*tenant.Domain, error) {
	query := `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM tenant_domains
		WHERE tenant_id = $1 AND is_primary = TRUE
		LIMIT 1`

	var d tenant.Domain
	err := r.db.GetContext(ctx, &d, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, tenant.ErrNoPrimaryDomain().WithDetail("tenant_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find primary domain", errx.TypeInternal).
			WithDetail("tenant_id", id.String())
	}

	return &d, nil
}

// FindDomains returns every domain owned by a tenant.
func (r *PostgresTenantRepository) FindDomains(ctx context.Context, id kernel.TenantID) ([]*tenant.Domain, error) {
	query := `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM tenant_domains
		WHERE tenant_id = $1
		ORDER BY is_primary DESC, created_at ASC`

	var domains []tenant.Domain
	err := r.db.SelectContext(ctx, &domains, query, id.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to find tenant domains", errx.TypeInternal).
			WithDetail("tenant_id", id.String())
	}

	result := make([]*tenant.Domain, len(domains))
	for i := range domains {
		result[i] = &domains[i]
	}

	return result, nil
}

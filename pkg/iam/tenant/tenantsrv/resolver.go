package tenantsrv

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/tenant"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// CachedResolver resolves hosts to tenants through a Redis read-through
// cache. Domain records change rarely, so a short TTL keeps the hot path off
// Postgres without risking long-lived stale bindings. A cache failure falls
// back to the repository; resolution never invents a tenant.
type CachedResolver struct {
	repo     tenant.TenantRepository
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewCachedResolver creates a resolver backed by the tenant repository and a
// Redis cache.
func NewCachedResolver(repo tenant.TenantRepository, rdb *redis.Client, cacheTTL time.Duration) *CachedResolver {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CachedResolver{
		repo:     repo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}
}

// Key helpers
func domainKey(host string) string            { return fmt.Sprintf("tenant:domain:%s", host) }
func primaryKey(id kernel.TenantID) string    { return fmt.Sprintf("tenant:primary:%s", id.String()) }

// ResolveDomain binds a host to a tenant. Unknown hosts return
// ErrDomainNotFound — negative results are never cached so a freshly
// provisioned domain resolves immediately.
func (r *CachedResolver) ResolveDomain(ctx context.Context, host string) (kernel.TenantID, error) {
	host = realm.NormalizeHost(host)
	if host == "" {
		return "", tenant.ErrDomainNotFound()
	}

	if cached, err := r.rdb.Get(ctx, domainKey(host)).Result(); err == nil && cached != "" {
		return kernel.NewTenantID(cached), nil
	} else if err != nil && err != redis.Nil {
		logx.WithError(err).Warn("tenant resolver cache read failed, hitting repository")
	}

	t, err := r.repo.FindByDomain(ctx, host)
	if err != nil {
		return "", err
	}
	if !t.IsActive() {
		return "", tenant.ErrTenantSuspended().WithDetail("tenant_id", t.ID.String())
	}

	if err := r.rdb.Set(ctx, domainKey(host), t.ID.String(), r.cacheTTL).Err(); err != nil {
		logx.WithError(err).Warn("tenant resolver cache write failed")
	}

	return t.ID, nil
}

// PrimaryDomain returns the host that redirects toward the tenant use.
func (r *CachedResolver) PrimaryDomain(ctx context.Context, id kernel.TenantID) (string, error) {
	if cached, err := r.rdb.Get(ctx, primaryKey(id)).Result(); err == nil && cached != "" {
		return cached, nil
	} else if err != nil && err != redis.Nil {
		logx.WithError(err).Warn("tenant resolver cache read failed, hitting repository")
	}

	d, err := r.repo.FindPrimaryDomain(ctx, id)
	if err != nil {
		return "", err
	}

	if err := r.rdb.Set(ctx, primaryKey(id), d.Domain, r.cacheTTL).Err(); err != nil {
		logx.WithError(err).Warn("tenant resolver cache write failed")
	}

	return d.Domain, nil
}

package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// CookiePolicy is the session cookie contract for one domain class.
type CookiePolicy struct {
	Name     string
	Domain   string
	SameSite string
	HTTPOnly bool
	Secure   bool
	TTL      time.Duration
}

// ConfigResolver produces the cookie policy for a classified domain. Cookie
// names are structurally distinct per domain class, and tenant names are
// derived deterministically from the tenant identity, so two tenants served
// from the same process can never collide on a cookie name.
type ConfigResolver struct {
	centralName  string
	tenantPrefix string
	secure       bool
	ttl          time.Duration
}

// NewConfigResolver builds a resolver from the configured cookie naming.
func NewConfigResolver(centralName, tenantPrefix string, secure bool, ttl time.Duration) *ConfigResolver {
	if centralName == "" {
		centralName = "tenantry_session"
	}
	if tenantPrefix == "" {
		tenantPrefix = "tenantry_tenant_"
	}
	return &ConfigResolver{
		centralName:  centralName,
		tenantPrefix: tenantPrefix,
		secure:       secure,
		ttl:          ttl,
	}
}

// CookieFor resolves the cookie policy for a domain class. Tenant requests
// must pass the bound tenant ID; central requests ignore it.
//
// SameSite is Lax everywhere: the central cookie must still ride along on
// the top-level redirect into the acceptance flow, while cross-site form
// posts stay blocked.
func (r *ConfigResolver) CookieFor(dc realm.DomainClass, tenantID kernel.TenantID) CookiePolicy {
	name := r.centralName
	if dc.IsTenant() {
		name = r.tenantPrefix + TenantCookieSuffix(tenantID)
	}

	return CookiePolicy{
		Name:     name,
		Domain:   dc.Host,
		SameSite: "Lax",
		HTTPOnly: true,
		Secure:   r.secure,
		TTL:      r.ttl,
	}
}

// ScopeFor maps a domain class to its session scope.
func ScopeFor(dc realm.DomainClass, tenantID kernel.TenantID) Scope {
	if dc.IsCentral() {
		return CentralScope()
	}
	return TenantScope(tenantID)
}

// TenantCookieSuffix derives the stable per-tenant cookie name suffix. A
// truncated SHA-256 keeps names short, stable, and collision-free across
// tenants without leaking the raw tenant ID into the cookie name.
func TenantCookieSuffix(tenantID kernel.TenantID) string {
	sum := sha256.Sum256([]byte(tenantID.String()))
	return hex.EncodeToString(sum[:])[:12]
}

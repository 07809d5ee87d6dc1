package realm

import (
	"context"

	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// TenantResolver binds a tenant host to a tenant. Defined here so the
// middleware does not depend on the tenant package's full surface.
type TenantResolver interface {
	ResolveDomain(ctx context.Context, host string) (kernel.TenantID, error)
}

const (
	localsDomainClass = "realm_domain_class"
	localsTenantID    = "realm_tenant_id"
)

// Middleware classifies the request host exactly once and, for tenant hosts,
// binds the tenant. Unknown tenant hosts fail the request with 404 — there
// is deliberately no fallback tenant.
func Middleware(classifier *Classifier, resolver TenantResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		host := c.Hostname()
		if host == "" {
			return ErrMissingHost()
		}

		dc := classifier.Classify(host)
		c.Locals(localsDomainClass, dc)

		if dc.IsTenant() {
			tenantID, err := resolver.ResolveDomain(c.Context(), dc.Host)
			if err != nil {
				return ErrUnknownTenantDomain().WithDetail("host", dc.Host)
			}
			c.Locals(localsTenantID, tenantID)
		}

		return c.Next()
	}
}

// FromCtx returns the DomainClass the middleware stored for this request.
func FromCtx(c *fiber.Ctx) (DomainClass, bool) {
	dc, ok := c.Locals(localsDomainClass).(DomainClass)
	return dc, ok
}

// TenantFromCtx returns the bound tenant for a tenant-classified request.
func TenantFromCtx(c *fiber.Ctx) (kernel.TenantID, bool) {
	id, ok := c.Locals(localsTenantID).(kernel.TenantID)
	return id, ok
}

// RequireCentral rejects requests whose host is not a central domain.
func RequireCentral() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dc, ok := FromCtx(c)
		if !ok || !dc.IsCentral() {
			return fiber.NewError(fiber.StatusNotFound, "not found")
		}
		return c.Next()
	}
}

// RequireTenant rejects requests whose host is not a bound tenant domain.
func RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dc, ok := FromCtx(c)
		if !ok || !dc.IsTenant() {
			return fiber.NewError(fiber.StatusNotFound, "not found")
		}
		if _, ok := TenantFromCtx(c); !ok {
			return ErrUnknownTenantDomain().WithDetail("host", dc.Host)
		}
		return c.Next()
	}
}

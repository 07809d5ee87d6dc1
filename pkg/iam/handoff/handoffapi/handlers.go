package handoffapi

import (
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers exposes handoff token redemption over HTTP.
type Handlers struct {
	service *handoffsrv.Service
	cookies *session.ConfigResolver
}

// NewHandlers creates handoff HTTP handlers.
func NewHandlers(service *handoffsrv.Service, cookies *session.ConfigResolver) *Handlers {
	return &Handlers{service: service, cookies: cookies}
}

// RegisterRoutes registers the redemption endpoint. It only exists on tenant
// domains; on central domains the path 404s.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	app.Get("/impersonate/:token", realm.RequireTenant(), h.redeem)
}

// redeem consumes a handoff token and establishes the tenant session. Every
// failure collapses to the same generic 401: which check failed is logged,
// never disclosed.
func (h *Handlers) redeem(c *fiber.Ctx) error {
	dc, _ := realm.FromCtx(c)
	tenantID, _ := realm.TenantFromCtx(c)

	value := c.Params("token")
	if value == "" {
		return iam.ErrUnauthorized()
	}

	sid := kernel.NewSessionID(uuid.NewString())

	token, err := h.service.Redeem(c.Context(), value, tenantID, sid)
	if err != nil {
		logx.WithError(err).WithField("host", dc.Host).Warn("Handoff redemption rejected")
		return iam.ErrUnauthorized()
	}

	policy := h.cookies.CookieFor(dc, tenantID)
	c.Cookie(&fiber.Cookie{
		Name:     policy.Name,
		Value:    sid.String(),
		Domain:   policy.Domain,
		Path:     "/",
		Expires:  time.Now().Add(policy.TTL),
		HTTPOnly: policy.HTTPOnly,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})

	return c.Redirect(token.RedirectPath, fiber.StatusSeeOther)
}

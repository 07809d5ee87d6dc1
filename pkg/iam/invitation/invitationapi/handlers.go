package invitationapi

import (
	"fmt"

	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/tenant"
	"github.com/Abraxas-365/tenantry/pkg/iam/transition"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the invitation lifecycle over HTTP.
type Handlers struct {
	service     *invitationsrv.Service
	tenants     tenant.Resolver
	cookies     *session.ConfigResolver
	coordinator *transition.Coordinator
}

// NewHandlers creates invitation HTTP handlers.
func NewHandlers(service *invitationsrv.Service, tenants tenant.Resolver, cookies *session.ConfigResolver, coordinator *transition.Coordinator) *Handlers {
	return &Handlers{service: service, tenants: tenants, cookies: cookies, coordinator: coordinator}
}

// RegisterRoutes registers the acceptance pages (central domains only, no
// auth: the token is the credential) and the management API (central
// domains, authenticated admins).
func (h *Handlers) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	app.Get("/invitation/:token", realm.RequireCentral(), h.validate)
	app.Post("/invitation/:token", realm.RequireCentral(), h.accept)

	api := app.Group("/api/v1/invitations", realm.RequireCentral(), authMiddleware)
	api.Post("/", h.create)
	api.Get("/", h.list)
}

// validate describes the invitation behind a token so the acceptance page
// can render the right state.
func (h *Handlers) validate(c *fiber.Ctx) error {
	dto, err := h.service.Validate(c.Context(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(dto)
}

// accept consumes the invitation. Tenant acceptances answer with a redirect
// into the tenant domain carrying the handoff token; central acceptances
// have nowhere to cross to and answer in place.
func (h *Handlers) accept(c *fiber.Ctx) error {
	var req invitationsrv.AcceptRequest
	if err := c.BodyParser(&req); err != nil {
		return invitation.ErrValidation("malformed request body")
	}

	result, err := h.service.Accept(c.Context(), c.Params("token"), req)
	if err != nil {
		return err
	}

	// If the acceptor also holds a central session (an admin walking the
	// flow), mark it so the return leg can clean up after the crossing.
	dc, _ := realm.FromCtx(c)
	central := h.cookies.CookieFor(dc, "")
	if sid := kernel.NewSessionID(c.Cookies(central.Name)); !sid.IsEmpty() {
		if err := h.coordinator.Prepare(c.Context(), sid); err != nil {
			logx.WithError(err).Warn("Failed to mark central session for transition")
		}
	}

	if result.Handoff == nil {
		// Central-scope accounts have no domain to cross into.
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}

	host, err := h.tenants.PrimaryDomain(c.Context(), result.Invitation.TenantID)
	if err != nil {
		// The account exists and the handoff token is live; losing the
		// redirect would strand the user, so surface the failure.
		logx.WithError(err).WithField("tenant_id", result.Invitation.TenantID.String()).
			Error("No primary domain for accepted invitation")
		return err
	}

	target := fmt.Sprintf("https://%s/impersonate/%s", host, result.Handoff.Value)
	return c.Redirect(target, fiber.StatusSeeOther)
}

// create issues a new invitation.
func (h *Handlers) create(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return iam.ErrUnauthorized()
	}
	if !actor.IsAdmin() {
		return iam.ErrAccessDenied()
	}

	var req invitationsrv.InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return invitation.ErrValidation("malformed request body")
	}

	// Tenant admins invite into their own tenant only.
	if !actor.IsCentral() {
		req.TenantID = actor.TenantID
	}

	base := fmt.Sprintf("%s://%s", c.Protocol(), c.Hostname())
	inv, err := h.service.Invite(c.Context(), actor, req, func(token string) string {
		return fmt.Sprintf("%s/invitation/%s", base, token)
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(inv)
}

// list pages through invitations for a tenant (central actors pass
// ?tenant_id=; tenant actors are pinned to their own).
func (h *Handlers) list(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return iam.ErrUnauthorized()
	}
	if !actor.IsAdmin() {
		return iam.ErrAccessDenied()
	}

	tenantID := actor.TenantID
	if actor.IsCentral() {
		tenantID = kernel.NewTenantID(c.Query("tenant_id"))
	}

	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	page, err := h.service.List(c.Context(), actor, tenantID, opts)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

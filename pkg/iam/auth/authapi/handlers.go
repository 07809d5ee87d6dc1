package authapi

import (
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handlers exposes login, logout, profile and transition completion.
type Handlers struct {
	service *authsrv.Service
	cookies *session.ConfigResolver
}

// NewHandlers creates auth HTTP handlers.
func NewHandlers(service *authsrv.Service, cookies *session.ConfigResolver) *Handlers {
	return &Handlers{service: service, cookies: cookies}
}

// RegisterRoutes registers the auth routes. Login and logout are scope-aware:
// on a central domain they act on the central session, on a tenant domain on
// that tenant's. Transition completion only means anything centrally.
func (h *Handlers) RegisterRoutes(app *fiber.App, authMiddleware fiber.Handler) {
	app.Post("/auth/login", h.login)
	app.Post("/auth/logout", authMiddleware, h.logout)
	app.Get("/auth/me", authMiddleware, h.me)
	app.Post("/auth/transition/complete", realm.RequireCentral(), authMiddleware, h.completeTransition)
}

func (h *Handlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("malformed request body")
	}
	if req.Email == "" || req.Password == "" {
		return errx.Validation("email and password are required")
	}

	dc, ok := realm.FromCtx(c)
	if !ok {
		return iam.ErrUnauthorized()
	}
	tenantID, _ := realm.TenantFromCtx(c)
	scope := session.ScopeFor(dc, tenantID)

	result, err := h.service.Login(c.Context(), scope, tenantID, req.Email, req.Password)
	if err != nil {
		return err
	}

	policy := h.cookies.CookieFor(dc, tenantID)
	c.Cookie(&fiber.Cookie{
		Name:     policy.Name,
		Value:    result.SessionID.String(),
		Domain:   policy.Domain,
		Path:     "/",
		Expires:  time.Now().Add(policy.TTL),
		HTTPOnly: policy.HTTPOnly,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})

	return c.JSON(result)
}

func (h *Handlers) logout(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	dc, _ := realm.FromCtx(c)
	tenantID, _ := realm.TenantFromCtx(c)
	scope := session.ScopeFor(dc, tenantID)

	if err := h.service.Logout(c.Context(), scope, actor.Session); err != nil {
		return err
	}

	policy := h.cookies.CookieFor(dc, tenantID)
	c.Cookie(&fiber.Cookie{
		Name:     policy.Name,
		Value:    "",
		Domain:   policy.Domain,
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: policy.HTTPOnly,
		Secure:   policy.Secure,
		SameSite: policy.SameSite,
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) me(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok {
		return iam.ErrUnauthorized()
	}

	dto, err := h.service.Me(c.Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto)
}

// completeTransition is the return leg of a domain crossing: it consumes the
// transition marker and sweeps tenant keys out of the central session.
func (h *Handlers) completeTransition(c *fiber.Ctx) error {
	actor, ok := auth.FromCtx(c)
	if !ok || actor.Session.IsEmpty() {
		return auth.ErrNoSession()
	}

	if err := h.service.CompleteTransition(c.Context(), actor.Session); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

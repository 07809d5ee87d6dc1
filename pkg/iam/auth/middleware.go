package auth

import (
	"strings"

	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const localsAuthContext = "auth_context"

// Middleware authenticates requests either by a Bearer access token (API
// clients) or by the session cookie of the classified domain (browsers).
// Either way the request ends up with a kernel.AuthContext in locals whose
// scope matches the domain it arrived on.
type Middleware struct {
	tokens   *JWTService
	sessions session.Store
	users    user.UserRepository
	cookies  *session.ConfigResolver
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *JWTService, sessions session.Store, users user.UserRepository, cookies *session.ConfigResolver) *Middleware {
	return &Middleware{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		cookies:  cookies,
	}
}

// Authenticate validates the caller and stores the AuthContext.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			return m.authenticateJWT(c, token)
		}
		return m.authenticateSession(c)
	}
}

// RequireAdmin rejects authenticated callers below admin.
func (m *Middleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := FromCtx(c)
		if !ok {
			return iam.ErrUnauthorized()
		}
		if !actor.IsAdmin() {
			return iam.ErrAccessDenied()
		}
		return c.Next()
	}
}

// FromCtx returns the AuthContext the middleware stored for this request.
func FromCtx(c *fiber.Ctx) (kernel.AuthContext, bool) {
	actor, ok := c.Locals(localsAuthContext).(kernel.AuthContext)
	return actor, ok && actor.IsValid()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (m *Middleware) authenticateJWT(c *fiber.Ctx, token string) error {
	claims, err := m.tokens.ValidateAccessToken(token)
	if err != nil {
		return iam.ErrInvalidToken()
	}

	// A tenant-issued token is no good on another tenant's domain, and a
	// central token is no good on any tenant domain.
	if dc, ok := realm.FromCtx(c); ok {
		tenantID, _ := realm.TenantFromCtx(c)
		if dc.IsTenant() && claims.TenantID != tenantID {
			return iam.ErrAccessDenied()
		}
		if dc.IsCentral() && !claims.TenantID.IsEmpty() {
			return iam.ErrAccessDenied()
		}
	}

	c.Locals(localsAuthContext, kernel.AuthContext{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
	})
	return c.Next()
}

func (m *Middleware) authenticateSession(c *fiber.Ctx) error {
	dc, ok := realm.FromCtx(c)
	if !ok {
		return iam.ErrUnauthorized()
	}
	tenantID, _ := realm.TenantFromCtx(c)

	policy := m.cookies.CookieFor(dc, tenantID)
	sid := kernel.NewSessionID(c.Cookies(policy.Name))
	if sid.IsEmpty() {
		return iam.ErrUnauthorized()
	}

	scope := session.ScopeFor(dc, tenantID)
	userID, found, err := m.sessions.GetKey(c.Context(), scope, sid, session.KeyAuthUserID)
	if err != nil || !found || userID == "" {
		return iam.ErrUnauthorized()
	}

	u, err := m.users.FindByID(c.Context(), kernel.NewUserID(userID))
	if err != nil {
		return iam.ErrUnauthorized()
	}

	// The stored identity must belong to the scope it was read from.
	if dc.IsTenant() && u.TenantID != tenantID {
		return iam.ErrUnauthorized()
	}
	if dc.IsCentral() && !u.IsCentral() {
		return iam.ErrUnauthorized()
	}

	c.Locals(localsAuthContext, kernel.AuthContext{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Session:  sid,
	})
	return c.Next()
}

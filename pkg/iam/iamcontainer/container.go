package iamcontainer

import (
	"github.com/Abraxas-365/tenantry/pkg/config"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffapi"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffinfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation/invitationapi"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation/invitationinfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/tenant"
	"github.com/Abraxas-365/tenantry/pkg/iam/tenant/tenantinfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/tenant/tenantsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/transition"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Mailer is a cross-context dependency injected as an interface so the
	// IAM module has zero knowledge of the concrete delivery implementation.
	Mailer invitationsrv.Mailer
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what other modules or cmd/ actually need.
// ---------------------------------------------------------------------------

type Container struct {
	// Request classification
	Classifier     *realm.Classifier
	TenantResolver tenant.Resolver

	// Services — available for cross-module consumption
	AuthService       *authsrv.Service
	InvitationService *invitationsrv.Service
	HandoffService    *handoffsrv.Service

	// Session plumbing shared with cmd/
	SessionStore   session.Store
	CookieResolver *session.ConfigResolver

	// API handlers — needed by cmd/ to register routes
	AuthHandlers       *authapi.Handlers
	InvitationHandlers *invitationapi.Handlers
	HandoffHandlers    *handoffapi.Handlers

	// Middleware — needed by cmd/ to protect route groups
	AuthMiddleware *auth.Middleware

	UserRepository user.UserRepository
}

// ---------------------------------------------------------------------------
// New: constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → handlers → middleware.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{}
	cfg := deps.Cfg

	// ── Repositories ─────────────────────────────────────────────────────

	tenantRepo := tenantinfra.NewPostgresTenantRepository(deps.DB)
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	invitationRepo := invitationinfra.NewPostgresInvitationRepository(deps.DB)
	c.UserRepository = userRepo

	// ── Domain classification & tenant resolution ────────────────────────

	c.Classifier = realm.NewClassifier(cfg.Realm.CentralDomains, cfg.Realm.TenantSuffix)
	c.TenantResolver = tenantsrv.NewCachedResolver(tenantRepo, deps.Redis, 0)

	// ── Sessions ─────────────────────────────────────────────────────────

	c.SessionStore = sessioninfra.NewRedisStore(deps.Redis, cfg.Session.TTL)
	c.CookieResolver = session.NewConfigResolver(
		cfg.Session.CentralCookieName,
		cfg.Session.TenantCookiePrefix,
		cfg.Session.SecureCookies,
		cfg.Session.TTL,
	)

	coordinator := transition.NewCoordinator(c.SessionStore, cfg.Session.TransitionTTL)

	// ── Services ─────────────────────────────────────────────────────────

	handoffStore := handoffinfra.NewRedisStore(deps.Redis)
	c.HandoffService = handoffsrv.NewService(handoffStore, userRepo, c.SessionStore, cfg.Session.HandoffTTL)

	c.InvitationService = invitationsrv.NewService(
		invitationRepo, userRepo, c.HandoffService, deps.Mailer, 0,
	)

	tokens := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.JWTIssuer)
	c.AuthService = authsrv.NewService(userRepo, c.SessionStore, tokens, coordinator)

	// ── Middleware & handlers ────────────────────────────────────────────

	c.AuthMiddleware = auth.NewMiddleware(tokens, c.SessionStore, userRepo, c.CookieResolver)

	c.AuthHandlers = authapi.NewHandlers(c.AuthService, c.CookieResolver)
	c.InvitationHandlers = invitationapi.NewHandlers(c.InvitationService, c.TenantResolver, c.CookieResolver, coordinator)
	c.HandoffHandlers = handoffapi.NewHandlers(c.HandoffService, c.CookieResolver)

	logx.Info("✅ IAM container initialized")
	return c
}

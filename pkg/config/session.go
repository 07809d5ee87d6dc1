package config

import "time"

// SessionConfig configures session cookies and the security windows of the
// cross-domain handoff protocol.
type SessionConfig struct {
	// CentralCookieName is the session cookie name on central domains.
	CentralCookieName string

	// TenantCookiePrefix prefixes the per-tenant derived cookie names.
	TenantCookiePrefix string

	// SecureCookies toggles the Secure flag (off for local development).
	SecureCookies bool

	// TTL is how long an idle session lives in the store.
	TTL time.Duration

	// TransitionTTL bounds the validity of the cross-domain transition
	// marker. Expiry is fail-closed.
	TransitionTTL time.Duration

	// HandoffTTL bounds the validity of a handoff token. Expiry is
	// fail-closed; there is no renewal.
	HandoffTTL time.Duration
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		CentralCookieName:  getEnv("SESSION_CENTRAL_COOKIE", "tenantry_session"),
		TenantCookiePrefix: getEnv("SESSION_TENANT_COOKIE_PREFIX", "tenantry_tenant_"),
		SecureCookies:      getEnvBool("SESSION_SECURE_COOKIES", true),
		TTL:                getEnvDuration("SESSION_TTL", 12*time.Hour),
		TransitionTTL:      getEnvDuration("SESSION_TRANSITION_TTL", 5*time.Minute),
		HandoffTTL:         getEnvDuration("SESSION_HANDOFF_TTL", 10*time.Minute),
	}
}

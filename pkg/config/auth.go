package config

import "time"

// AuthConfig configures password auth and the admin API tokens.
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	JWTIssuer      string
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AccessTokenTTL: getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTIssuer:      getEnv("JWT_ISSUER", "tenantry"),
	}
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every configuration concern of the service.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Realm    RealmConfig
	Session  SessionConfig
	Auth     AuthConfig
	Jobx     JobxConfig
	Notifx   NotifxConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string
	CORSOrigins     string
	ShutdownTimeout time.Duration
}

// Load builds the full configuration from the environment.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Realm:    loadRealmConfig(),
		Session:  loadSessionConfig(),
		Auth:     loadAuthConfig(),
		Jobx:     loadJobxConfig(),
		Notifx:   loadNotifxConfig(),
	}
}

// ============================================================================
// Env helpers
// ============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// TokenClaims is the decoded content of an access token.
type TokenClaims struct {
	UserID    kernel.UserID   `json:"user_id"`
	TenantID  kernel.TenantID `json:"tenant_id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	IssuedAt  time.Time       `json:"iat"`
	ExpiresAt time.Time       `json:"exp"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Token validation failed")
	CodeNoSession             = ErrRegistry.Register("NO_SESSION", errx.TypeAuthorization, http.StatusUnauthorized, "No active session")
)

// Helper functions
func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}

func ErrNoSession() *errx.Error {
	return ErrRegistry.New(CodeNoSession)
}

package handoff

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// ============================================================================
// Domain Model
// ============================================================================

// Token is a single-use credential bridging the central domain and one tenant
// domain. It is the only artifact that crosses the scope boundary: no session
// cookie and no JWT ever does.
type Token struct {
	Value        string          `json:"value"`
	TenantID     kernel.TenantID `json:"tenant_id"`
	UserID       kernel.UserID   `json:"user_id"`
	RedirectPath string          `json:"redirect_path"`
	IssuedAt     time.Time       `json:"issued_at"`
}

const tokenBytes = 32

// NewTokenValue generates an unguessable token value. 32 random bytes,
// base64url without padding so it travels in a path segment.
func NewTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", ErrRegistry.NewWithCause(CodeGenerateFailure, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("HANDOFF")

var (
	// Not-found covers unknown, expired and already-consumed tokens alike:
	// the consuming store cannot tell them apart, and callers must not
	// reveal which one it was anyway.
	CodeTokenNotFound   = ErrRegistry.Register("TOKEN_NOT_FOUND", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired handoff token")
	CodeTenantMismatch  = ErrRegistry.Register("TENANT_MISMATCH", errx.TypeAuthorization, http.StatusUnauthorized, "Handoff token not valid for this domain")
	CodeGenerateFailure = ErrRegistry.Register("GENERATE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Could not generate handoff token")
)

func ErrTokenNotFound() *errx.Error {
	return ErrRegistry.New(CodeTokenNotFound)
}

func ErrTenantMismatch() *errx.Error {
	return ErrRegistry.New(CodeTenantMismatch)
}

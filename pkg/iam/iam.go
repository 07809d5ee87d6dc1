package iam

import (
	"net/http"

	"github.com/Abraxas-365/tenantry/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeAuthorization, http.StatusForbidden, "Access denied")
)

// Helper functions
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}

// Role names used across the IAM context.
const (
	RoleSuper  = "super"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether a role name is one we issue invitations for.
func ValidRole(role string) bool {
	switch role {
	case RoleSuper, RoleAdmin, RoleMember:
		return true
	}
	return false
}

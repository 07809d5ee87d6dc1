package kernel

// ============================================================================
// Context Types
// ============================================================================

// AuthContext is the authentication context injected into each request once
// the auth middleware has validated the caller.
type AuthContext struct {
	UserID   UserID    `json:"user_id"`
	TenantID TenantID  `json:"tenant_id"` // empty for central-scope actors
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Session  SessionID `json:"-"`
}

// IsValid reports whether the AuthContext carries an authenticated identity.
func (ac *AuthContext) IsValid() bool {
	return !ac.UserID.IsEmpty()
}

// IsCentral reports whether the actor belongs to the central directory scope
// rather than to a tenant.
func (ac *AuthContext) IsCentral() bool {
	return ac.TenantID.IsEmpty()
}

// IsAdmin reports whether the actor may manage invitations.
func (ac *AuthContext) IsAdmin() bool {
	return ac.Role == "admin" || ac.Role == "super"
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// AuthContextKey stores the AuthContext in request locals.
	AuthContextKey ContextKey = "auth_context"

	// DomainClassKey stores the classified DomainClass in request locals.
	DomainClassKey ContextKey = "domain_class"

	// RequestIDKey stores the request ID.
	RequestIDKey ContextKey = "request_id"
)

package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// ============================================================================
// Scope
// ============================================================================

// Scope partitions session state per domain class. Every store operation
// carries a Scope; state written under one scope is unreachable from any
// other. This is the isolation invariant of the handoff protocol.
type Scope string

// CentralScope is the scope of the central directory domains.
func CentralScope() Scope {
	return Scope("central")
}

// TenantScope is the scope of one tenant's domains.
func TenantScope(id kernel.TenantID) Scope {
	return Scope(fmt.Sprintf("tenant:%s", id.String()))
}

// IsCentral reports whether the scope is the central scope.
func (s Scope) IsCentral() bool {
	return s == CentralScope()
}

func (s Scope) String() string {
	return string(s)
}

// ============================================================================
// Well-known session keys
// ============================================================================

const (
	// KeyAuthUserID is the authentication key. It is the one key that
	// survives tenant-key cleanup on the central side.
	KeyAuthUserID = "auth_user_id"

	// KeyCSRFToken is the CSRF token key, also preserved by cleanup.
	KeyCSRFToken = "_csrf_token"

	// TenantKeyPrefix namespaces keys holding tenant-scoped artifacts
	// inside a central session. Cleanup removes everything under it.
	TenantKeyPrefix = "tenant."
)

// IsTenantKey reports whether a session key belongs to the tenant namespace.
func IsTenantKey(key string) bool {
	return strings.HasPrefix(key, TenantKeyPrefix)
}

// ============================================================================
// Store port
// ============================================================================

// Store is the session state contract. All cross-request session state lives
// behind this interface, keyed by (Scope, SessionID); nothing in the IAM core
// reads ambient global session state.
type Store interface {
	// Get returns every key/value in the session. A missing session
	// yields an empty map, not an error.
	Get(ctx context.Context, scope Scope, id kernel.SessionID) (map[string]string, error)

	// GetKey returns one value and whether it was present.
	GetKey(ctx context.Context, scope Scope, id kernel.SessionID, key string) (string, bool, error)

	// SetKeys writes the given keys into the session, creating it if
	// needed and refreshing its TTL.
	SetKeys(ctx context.Context, scope Scope, id kernel.SessionID, values map[string]string) error

	// DeleteKeys removes the given keys. Missing keys are not an error.
	DeleteKeys(ctx context.Context, scope Scope, id kernel.SessionID, keys ...string) error

	// Destroy removes the whole session.
	Destroy(ctx context.Context, scope Scope, id kernel.SessionID) error
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("SESSION")

var (
	CodeStoreFailure = ErrRegistry.Register("STORE_FAILURE", errx.TypeExternal, http.StatusInternalServerError, "Session store operation failed")
)

func ErrStoreFailure() *errx.Error {
	return ErrRegistry.New(CodeStoreFailure)
}

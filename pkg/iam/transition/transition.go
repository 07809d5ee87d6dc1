package transition

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TRANSITION")

var (
	CodeMarkerMissing = ErrRegistry.Register("MARKER_MISSING", errx.TypeAuthorization, http.StatusUnauthorized, "No domain transition in progress")
	CodeMarkerExpired = ErrRegistry.Register("MARKER_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Domain transition window expired")
)

func ErrMarkerMissing() *errx.Error {
	return ErrRegistry.New(CodeMarkerMissing)
}

func ErrMarkerExpired() *errx.Error {
	return ErrRegistry.New(CodeMarkerExpired)
}

// ============================================================================
// Coordinator
// ============================================================================

// Session keys carrying the transition marker inside the central session.
const (
	KeyMarker   = "_transition_marker"
	KeyIssuedAt = "_transition_issued_at"
)

// DefaultTTL bounds how long a prepared transition stays valid.
const DefaultTTL = 5 * time.Minute

// Coordinator protects the timing and authenticity of a domain crossing.
// It never authenticates anyone itself: Prepare marks the caller's central
// session as "about to cross domains", Validate consumes that marker within
// the TTL, and CleanTenantKeys strips stale tenant artifacts afterwards.
//
// Together with the handoff consumer this is the only place in the core
// where time-window comparisons happen.
type Coordinator struct {
	store session.Store
	ttl   time.Duration
}

// NewCoordinator creates a coordinator over the given session store.
func NewCoordinator(store session.Store, ttl time.Duration) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coordinator{store: store, ttl: ttl}
}

// Prepare writes the transition marker into the caller's current central
// session. It does not fork a new session.
func (c *Coordinator) Prepare(ctx context.Context, sid kernel.SessionID) error {
	return c.store.SetKeys(ctx, session.CentralScope(), sid, map[string]string{
		KeyMarker:   "1",
		KeyIssuedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Validate consumes the transition marker. Both keys are deleted on the
// first read regardless of the outcome: an expired or malformed marker is
// treated exactly like an absent one, and nothing is left behind to retry
// against.
func (c *Coordinator) Validate(ctx context.Context, sid kernel.SessionID) (bool, error) {
	scope := session.CentralScope()

	marker, markerOK, err := c.store.GetKey(ctx, scope, sid, KeyMarker)
	if err != nil {
		return false, err
	}
	issuedAt, issuedOK, err := c.store.GetKey(ctx, scope, sid, KeyIssuedAt)
	if err != nil {
		return false, err
	}

	// Single-read consumption, success or not.
	if err := c.store.DeleteKeys(ctx, scope, sid, KeyMarker, KeyIssuedAt); err != nil {
		return false, err
	}

	if !markerOK || !issuedOK || marker != "1" {
		return false, nil
	}

	issued, err := time.Parse(time.RFC3339Nano, issuedAt)
	if err != nil {
		return false, nil
	}

	return time.Since(issued) <= c.ttl, nil
}

// CleanTenantKeys removes every tenant-namespaced key from the central
// session while preserving the central authentication key and the CSRF key.
// Used after a central actor has operated across a tenant boundary.
func (c *Coordinator) CleanTenantKeys(ctx context.Context, sid kernel.SessionID) error {
	scope := session.CentralScope()

	values, err := c.store.Get(ctx, scope, sid)
	if err != nil {
		return err
	}

	var stale []string
	for key := range values {
		if key == session.KeyAuthUserID || key == session.KeyCSRFToken {
			continue
		}
		if session.IsTenantKey(key) {
			stale = append(stale, key)
		}
	}

	if len(stale) == 0 {
		return nil
	}
	return c.store.DeleteKeys(ctx, scope, sid, stale...)
}

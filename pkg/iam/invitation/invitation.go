package invitation

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

// Invitation status values.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
)

// Invitation is an offer to create an account. A tenant-scoped invitation
// (TenantID set) creates a member of that tenant; a central-scoped one
// (TenantID empty) creates a central directory account.
type Invitation struct {
	ID         kernel.InvitationID `db:"id" json:"id"`
	TenantID   kernel.TenantID     `db:"tenant_id" json:"tenant_id"`
	Email      string              `db:"email" json:"email"`
	Role       string              `db:"role" json:"role"`
	Token      string              `db:"token" json:"-"`
	Status     string              `db:"status" json:"status"`
	InvitedBy  kernel.UserID       `db:"invited_by" json:"invited_by"`
	ExpiresAt  time.Time           `db:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time          `db:"accepted_at" json:"accepted_at"`
	CreatedAt  time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time           `db:"updated_at" json:"updated_at"`
}

// IsPending reports whether the invitation has not been accepted yet.
// Pending says nothing about expiry; check IsExpired separately.
func (i *Invitation) IsPending() bool {
	return i.Status == StatusPending
}

// IsAccepted reports whether the invitation was already accepted.
func (i *Invitation) IsAccepted() bool {
	return i.Status == StatusAccepted
}

// IsExpired reports whether the invitation's window has passed.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsCentral reports whether acceptance creates a central-scope account.
func (i *Invitation) IsCentral() bool {
	return i.TenantID.IsEmpty()
}

// DefaultTTL is how long a fresh invitation stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

const tokenBytes = 32

// NewToken generates an unguessable invitation token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate invitation token", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ============================================================================
// DTOs
// ============================================================================

// ValidationDTO is what the acceptance page learns about an invitation
// before the user submits the form. The token holder already received the
// invitation email, so disclosing the precise state is deliberate.
type ValidationDTO struct {
	Valid      bool            `json:"valid"`
	Reason     string          `json:"reason,omitempty"`
	Email      string          `json:"email,omitempty"`
	Role       string          `json:"role,omitempty"`
	TenantID   kernel.TenantID `json:"tenant_id,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	UserExists bool            `json:"user_exists"`
}

// Invalidity reasons surfaced by ValidationDTO.
const (
	ReasonNotFound   = "not_found"
	ReasonAccepted   = "already_accepted"
	ReasonExpired    = "expired"
	ReasonUserExists = "user_exists"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("INVITATION")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Invitation not found")
	CodeAlreadyAccepted = ErrRegistry.Register("ALREADY_ACCEPTED", errx.TypeConflict, http.StatusConflict, "Invitation was already accepted")
	CodeExpired         = ErrRegistry.Register("EXPIRED", errx.TypeBusiness, http.StatusGone, "Invitation has expired")
	CodeAlreadyPending  = ErrRegistry.Register("ALREADY_PENDING", errx.TypeConflict, http.StatusConflict, "A pending invitation already exists for this email")
	CodeValidation      = ErrRegistry.Register("VALIDATION", errx.TypeValidation, http.StatusBadRequest, "Invalid invitation request")
)

func ErrInvitationNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrAlreadyAccepted() *errx.Error {
	return ErrRegistry.New(CodeAlreadyAccepted)
}

func ErrExpired() *errx.Error {
	return ErrRegistry.New(CodeExpired)
}

func ErrAlreadyPending() *errx.Error {
	return ErrRegistry.New(CodeAlreadyPending)
}

func ErrValidation(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeValidation, message)
}

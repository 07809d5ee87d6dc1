package user

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// ============================================================================
// Domain Model
// ============================================================================

// User is an account living either under a tenant or in the central scope
// (TenantID empty). PasswordHash is nullable: accounts created for later
// OAuth linkage carry no password and cannot log in with one.
type User struct {
	ID              kernel.UserID   `db:"id" json:"id"`
	TenantID        kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Email           string          `db:"email" json:"email"`
	Name            string          `db:"name" json:"name"`
	PasswordHash    *string         `db:"password_hash" json:"-"`
	Role            string          `db:"role" json:"role"`
	EmailVerifiedAt *time.Time      `db:"email_verified_at" json:"email_verified_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsCentral reports whether the user belongs to the central directory scope.
func (u *User) IsCentral() bool {
	return u.TenantID.IsEmpty()
}

// CanPasswordLogin reports whether the account has a password at all.
func (u *User) CanPasswordLogin() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsEmailVerified reports whether the email was verified.
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// UserDTO is the API representation of a user.
type UserDTO struct {
	ID            kernel.UserID   `json:"id"`
	TenantID      kernel.TenantID `json:"tenant_id,omitempty"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	Role          string          `json:"role"`
	EmailVerified bool            `json:"email_verified"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToDTO converts the user to its API representation.
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:            u.ID,
		TenantID:      u.TenantID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.IsEmailVerified(),
		CreatedAt:     u.CreatedAt,
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound       = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeUserAlreadyExists  = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "User already exists")
	CodeNoPasswordLogin    = ErrRegistry.Register("NO_PASSWORD_LOGIN", errx.TypeAuthorization, http.StatusUnauthorized, "Password login unavailable for this account")
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrUserAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeUserAlreadyExists)
}

func ErrNoPasswordLogin() *errx.Error {
	return ErrRegistry.New(CodeNoPasswordLogin)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

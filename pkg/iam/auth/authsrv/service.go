package authsrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/tenantry/pkg/iam/auth"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/transition"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/google/uuid"
)

// LoginResult is a successful authentication: a session for the browser and
// an access token for the API.
type LoginResult struct {
	User        user.UserDTO     `json:"user"`
	AccessToken string           `json:"access_token"`
	SessionID   kernel.SessionID `json:"-"`
}

// Service owns password authentication and session lifecycle.
type Service struct {
	users       user.UserRepository
	sessions    session.Store
	tokens      *auth.JWTService
	coordinator *transition.Coordinator
}

// NewService creates an auth service.
func NewService(users user.UserRepository, sessions session.Store, tokens *auth.JWTService, coordinator *transition.Coordinator) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		tokens:      tokens,
		coordinator: coordinator,
	}
}

// Login authenticates email+password within the scope of the domain the
// request arrived on and establishes a session there. Accounts without a
// password hash (SSO-only) are told so; a wrong password is not.
func (s *Service) Login(ctx context.Context, scope session.Scope, tenantID kernel.TenantID, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email, tenantID)
	if err != nil {
		return nil, user.ErrInvalidCredentials()
	}

	if !u.CanPasswordLogin() {
		return nil, user.ErrNoPasswordLogin()
	}
	if !auth.CheckPassword(*u.PasswordHash, password) {
		return nil, user.ErrInvalidCredentials()
	}

	sid := kernel.NewSessionID(uuid.NewString())
	err = s.sessions.SetKeys(ctx, scope, sid, map[string]string{
		session.KeyAuthUserID: u.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"user_id": u.ID.String(),
		"scope":   scope.String(),
	}).Info("User logged in")

	return &LoginResult{
		User:        u.ToDTO(),
		AccessToken: accessToken,
		SessionID:   sid,
	}, nil
}

// Logout destroys the session under its scope.
func (s *Service) Logout(ctx context.Context, scope session.Scope, sid kernel.SessionID) error {
	if sid.IsEmpty() {
		return nil
	}
	return s.sessions.Destroy(ctx, scope, sid)
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID kernel.UserID) (*user.UserDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// PrepareTransition marks the central session as about to cross domains.
func (s *Service) PrepareTransition(ctx context.Context, sid kernel.SessionID) error {
	return s.coordinator.Prepare(ctx, sid)
}

// CompleteTransition consumes the transition marker on the return leg and
// sweeps tenant-namespaced keys out of the central session. An absent,
// expired or malformed marker all fail the same way.
func (s *Service) CompleteTransition(ctx context.Context, sid kernel.SessionID) error {
	ok, err := s.coordinator.Validate(ctx, sid)
	if err != nil {
		return err
	}
	if !ok {
		return transition.ErrMarkerMissing()
	}
	return s.coordinator.CleanTenantKeys(ctx, sid)
}

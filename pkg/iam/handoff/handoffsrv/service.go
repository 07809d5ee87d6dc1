package handoffsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/handoff"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/Abraxas-365/tenantry/pkg/logx"
)

// DefaultTTL bounds how long an issued handoff token stays redeemable.
const DefaultTTL = 10 * time.Minute

// Service issues and redeems handoff tokens. Redemption consumes the token
// before any other check runs, so a token spent against the wrong tenant, or
// for a user that no longer exists, is burned rather than left redeemable.
type Service struct {
	tokens   handoff.Store
	users    user.UserRepository
	sessions session.Store
	ttl      time.Duration
}

// NewService creates a handoff service.
func NewService(tokens handoff.Store, users user.UserRepository, sessions session.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		ttl:      ttl,
	}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a pending handoff token for (tenant, user). The caller is
// expected to issue before committing the work the token authorizes and to
// Revoke on failure; the TTL is the backstop if that compensation is lost.
func (s *Service) Issue(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, redirectPath string) (*handoff.Token, error) {
	value, err := handoff.NewTokenValue()
	if err != nil {
		return nil, err
	}

	// Relative paths only; "//host" would be a protocol-relative escape.
	if redirectPath == "" || redirectPath[0] != '/' || strings.HasPrefix(redirectPath, "//") {
		redirectPath = "/"
	}

	token := handoff.Token{
		Value:        value,
		TenantID:     tenantID,
		UserID:       userID,
		RedirectPath: redirectPath,
		IssuedAt:     time.Now().UTC(),
	}

	if err := s.tokens.Put(ctx, token, s.ttl); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"tenant_id": tenantID.String(),
		"user_id":   userID.String(),
	}).Debug("Issued handoff token")

	return &token, nil
}

// Revoke removes a still-pending token. Best effort: a failure is logged and
// swallowed because the TTL will reap the token anyway.
func (s *Service) Revoke(ctx context.Context, value string) {
	if err := s.tokens.Delete(ctx, value); err != nil {
		logx.WithError(err).Warn("Failed to revoke handoff token, TTL will reap it")
	}
}

// Redeem consumes a token on the given tenant domain and establishes the
// tenant session. The take happens first and is unconditional; all failures
// after it leave the token spent.
func (s *Service) Redeem(ctx context.Context, value string, tenantID kernel.TenantID, sid kernel.SessionID) (*handoff.Token, error) {
	token, err := s.tokens.Take(ctx, value)
	if err != nil {
		return nil, err
	}

	if token.TenantID != tenantID {
		logx.WithFields(logx.Fields{
			"token_tenant":  token.TenantID.String(),
			"domain_tenant": tenantID.String(),
		}).Warn("Handoff token redeemed on wrong tenant domain, token burned")
		return nil, handoff.ErrTenantMismatch()
	}

	// The token may outlive the account it was issued for (the accept
	// transaction rolled back, or the user was deleted meanwhile).
	u, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, handoff.ErrTokenNotFound()
	}
	if u.TenantID != token.TenantID {
		return nil, handoff.ErrTokenNotFound()
	}

	err = s.sessions.SetKeys(ctx, session.TenantScope(tenantID), sid, map[string]string{
		session.KeyAuthUserID: token.UserID.String(),
	})
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"tenant_id": tenantID.String(),
		"user_id":   token.UserID.String(),
	}).Info("Handoff token redeemed")

	return token, nil
}

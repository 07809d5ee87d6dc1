package invitationsrv

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/Abraxas-365/tenantry/pkg/logx"
	"github.com/google/uuid"
)

// Mailer delivers invitation-related mail. Implementations are expected to
// be fast (enqueue, not send); failures are logged and never block the flow.
type Mailer interface {
	SendInvitation(ctx context.Context, inv invitation.Invitation, acceptURL string) error
	SendWelcome(ctx context.Context, email, name string) error
}

// InviteRequest is a request to invite someone.
type InviteRequest struct {
	TenantID kernel.TenantID `json:"tenant_id"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
}

// AcceptRequest is the acceptance form payload.
type AcceptRequest struct {
	Name                 string `json:"name"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// AcceptResult is what a successful acceptance produces. Handoff is nil for
// central-scoped invitations: the new account lives on the central domain
// already and has nothing to cross into.
type AcceptResult struct {
	Invitation *invitation.Invitation
	User       *user.User
	Handoff    *handoff.Token
}

// Service owns the invitation lifecycle.
type Service struct {
	invitations invitation.InvitationRepository
	users       user.UserRepository
	handoffs    *handoffsrv.Service
	mailer      Mailer
	ttl         time.Duration
}

// NewService creates an invitation service.
func NewService(invitations invitation.InvitationRepository, users user.UserRepository, handoffs *handoffsrv.Service, mailer Mailer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = invitation.DefaultTTL
	}
	return &Service{
		invitations: invitations,
		users:       users,
		handoffs:    handoffs,
		mailer:      mailer,
		ttl:         ttl,
	}
}

// Invite creates a pending invitation and mails its acceptance link. The
// acceptURL callback turns the token into the central-domain link embedded
// in the mail.
func (s *Service) Invite(ctx context.Context, actor kernel.AuthContext, req InviteRequest, acceptURL func(token string) string) (*invitation.Invitation, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invitation.ErrValidation("invalid email address")
	}
	if !iam.ValidRole(req.Role) {
		return nil, invitation.ErrValidation("unknown role")
	}
	// Central-scope invitations mint central accounts; only supers do that.
	if req.TenantID.IsEmpty() && actor.Role != iam.RoleSuper {
		return nil, iam.ErrAccessDenied()
	}

	if exists, err := s.users.ExistsByEmail(ctx, email, req.TenantID); err != nil {
		return nil, err
	} else if exists {
		return nil, user.ErrUserAlreadyExists().WithDetail("email", email)
	}

	if pending, err := s.invitations.ExistsPendingForEmail(ctx, email, req.TenantID); err != nil {
		return nil, err
	} else if pending {
		return nil, invitation.ErrAlreadyPending().WithDetail("email", email)
	}

	token, err := invitation.NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := invitation.Invitation{
		ID:        kernel.NewInvitationID(uuid.NewString()),
		TenantID:  req.TenantID,
		Email:     email,
		Role:      req.Role,
		Token:     token,
		Status:    invitation.StatusPending,
		InvitedBy: actor.UserID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.invitations.Save(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvitation(ctx, inv, acceptURL(token)); err != nil {
		logx.WithError(err).WithField("email", email).Warn("Failed to queue invitation email")
	}

	logx.WithFields(logx.Fields{
		"invitation_id": inv.ID.String(),
		"tenant_id":     inv.TenantID.String(),
		"invited_by":    actor.UserID.String(),
	}).Info("Invitation created")

	return &inv, nil
}

// Validate describes the state of an invitation for the acceptance page.
func (s *Service) Validate(ctx context.Context, token string) (*invitation.ValidationDTO, error) {
	inv, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		if errx.IsCode(err, invitation.CodeNotFound) {
			return &invitation.ValidationDTO{Valid: false, Reason: invitation.ReasonNotFound}, nil
		}
		return nil, err
	}

	dto := &invitation.ValidationDTO{
		Email:     inv.Email,
		Role:      inv.Role,
		TenantID:  inv.TenantID,
		ExpiresAt: &inv.ExpiresAt,
	}

	switch {
	case inv.IsAccepted():
		dto.Reason = invitation.ReasonAccepted
	case inv.IsExpired():
		dto.Reason = invitation.ReasonExpired
	default:
		exists, err := s.users.ExistsByEmail(ctx, inv.Email, inv.TenantID)
		if err != nil {
			return nil, err
		}
		if exists {
			dto.Reason = invitation.ReasonUserExists
			dto.UserExists = true
		} else {
			dto.Valid = true
		}
	}

	return dto, nil
}

// Accept consumes the invitation, creates the account and, for tenant
// invitations, returns a handoff token for the tenant domain.
//
// The handoff token is issued before the accept transaction commits. If the
// commit then fails the token is revoked best-effort and its TTL is the
// backstop; redemption independently re-verifies that the account exists,
// so an orphaned token can never establish a session.
func (s *Service) Accept(ctx context.Context, token string, req AcceptRequest) (*AcceptResult, error) {
	inv, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invitation.ErrValidation("name is required")
	}

	// Central accounts may be created password-less for SSO-only use;
	// tenant members always set one.
	var passwordHash *string
	if req.Password != "" {
		if len(req.Password) < 8 {
			return nil, invitation.ErrValidation("password must be at least 8 characters")
		}
		if req.Password != req.PasswordConfirmation {
			return nil, invitation.ErrValidation("password confirmation does not match")
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = &hash
	} else if !inv.IsCentral() {
		return nil, invitation.ErrValidation("password is required")
	}

	now := time.Now().UTC()
	newUser := user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		TenantID:     inv.TenantID,
		Email:        inv.Email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         inv.Role,
		// Reaching the acceptance link proves control of the mailbox.
		EmailVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var handoffToken *handoff.Token
	if !inv.IsCentral() {
		handoffToken, err = s.handoffs.Issue(ctx, inv.TenantID, newUser.ID, "/admin")
		if err != nil {
			return nil, err
		}
	}

	accepted, err := s.invitations.ConsumePending(ctx, token, newUser)
	if err != nil {
		if handoffToken != nil {
			s.handoffs.Revoke(ctx, handoffToken.Value)
		}
		return nil, err
	}

	if err := s.mailer.SendWelcome(ctx, newUser.Email, newUser.Name); err != nil {
		logx.WithError(err).WithField("email", newUser.Email).Warn("Failed to queue welcome email")
	}

	logx.WithFields(logx.Fields{
		"invitation_id": accepted.ID.String(),
		"tenant_id":     accepted.TenantID.String(),
		"user_id":       newUser.ID.String(),
	}).Info("Invitation accepted")

	return &AcceptResult{
		Invitation: accepted,
		User:       &newUser,
		Handoff:    handoffToken,
	}, nil
}

// List pages through a tenant's invitations. Central actors may list any
// tenant; tenant actors only their own.
func (s *Service) List(ctx context.Context, actor kernel.AuthContext, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	if !actor.IsCentral() && actor.TenantID != tenantID {
		return kernel.Paginated[invitation.Invitation]{}, iam.ErrAccessDenied()
	}
	return s.invitations.FindByTenant(ctx, tenantID, opts)
}

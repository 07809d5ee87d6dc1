package invitationsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffinfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/transition"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// Walks the whole identity handoff: a tenant admin invites, the invitee
// accepts on the central domain, the browser lands on the tenant domain and
// redeems the handoff token. The admin's central session must come out of it
// untouched, and the invitee's tenant session must be authenticated.
func TestInviteAcceptRedeemFlow(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	sessions := sessioninfra.NewMemoryStore()
	handoffs := handoffsrv.NewService(
		handoffinfra.NewMemoryStore(), userRepo{store}, sessions, 10*time.Minute,
	)
	service := invitationsrv.NewService(store, userRepo{store}, handoffs, &fakeMailer{}, 0)
	coordinator := transition.NewCoordinator(sessions, 5*time.Minute)

	// The inviting admin is logged in on the central domain.
	adminSID := kernel.SessionID("admin-sid")
	if err := sessions.SetKeys(ctx, session.CentralScope(), adminSID, map[string]string{
		session.KeyAuthUserID: "admin-1",
	}); err != nil {
		t.Fatal(err)
	}

	inv, err := service.Invite(ctx, adminActor(), invitationsrv.InviteRequest{
		TenantID: "t1", Email: "alice@acme.example", Role: iam.RoleMember,
	}, acceptURL)
	if err != nil {
		t.Fatal(err)
	}

	result, err := service.Accept(ctx, inv.Token, invitationsrv.AcceptRequest{
		Name: "Alice", Password: "hunter2hunter2", PasswordConfirmation: "hunter2hunter2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Handoff == nil {
		t.Fatal("tenant acceptance issued no handoff token")
	}

	// The invitee held a central session too (the form lives there); the
	// acceptance marks it for the upcoming domain transition.
	inviteeSID := kernel.SessionID("invitee-sid")
	sessions.SetKeys(ctx, session.CentralScope(), inviteeSID, map[string]string{"theme": "dark"})
	if err := coordinator.Prepare(ctx, inviteeSID); err != nil {
		t.Fatal(err)
	}

	// Browser follows the redirect to the tenant domain and redeems.
	tenantSID := kernel.SessionID("tenant-sid")
	tok, err := handoffs.Redeem(ctx, result.Handoff.Value, "t1", tenantSID)
	if err != nil {
		t.Fatal(err)
	}
	if tok.RedirectPath != "/admin" {
		t.Errorf("redirect path = %q", tok.RedirectPath)
	}

	uid, ok, err := sessions.GetKey(ctx, session.TenantScope("t1"), tenantSID, session.KeyAuthUserID)
	if err != nil || !ok || uid != string(result.User.ID) {
		t.Fatalf("tenant session auth key = (%q, %v, %v), want invitee", uid, ok, err)
	}

	// Replay of the same handoff URL must fail.
	if _, err := handoffs.Redeem(ctx, result.Handoff.Value, "t1", "attacker-sid"); err == nil {
		t.Fatal("handoff token redeemed twice")
	}

	// The transition marker validates exactly once.
	if ok, err := coordinator.Validate(ctx, inviteeSID); err != nil || !ok {
		t.Fatalf("transition marker = (%v, %v), want valid", ok, err)
	}
	if ok, _ := coordinator.Validate(ctx, inviteeSID); ok {
		t.Fatal("transition marker validated twice")
	}

	// The admin's central session never crossed the boundary.
	got, _, err := sessions.GetKey(ctx, session.CentralScope(), adminSID, session.KeyAuthUserID)
	if err != nil || got != "admin-1" {
		t.Fatalf("admin central session = (%q, %v), want untouched", got, err)
	}
	if _, ok, _ := sessions.GetKey(ctx, session.TenantScope("t1"), adminSID, session.KeyAuthUserID); ok {
		t.Fatal("admin session id leaked into the tenant scope")
	}
}

package invitationsrv_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffinfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation"
	"github.com/Abraxas-365/tenantry/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeStore struct {
	mu          sync.Mutex
	invitations map[string]*invitation.Invitation // by token
	users       map[kernel.UserID]*user.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invitations: make(map[string]*invitation.Invitation),
		users:       make(map[kernel.UserID]*user.User),
	}
}

// --- invitation.InvitationRepository ---

func (s *fakeStore) FindByID(_ context.Context, id kernel.InvitationID) (*invitation.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invitations {
		if inv.ID == id {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, invitation.ErrInvitationNotFound()
}

func (s *fakeStore) FindByToken(_ context.Context, token string) (*invitation.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[token]
	if !ok {
		return nil, invitation.ErrInvitationNotFound()
	}
	copied := *inv
	return &copied, nil
}

func (s *fakeStore) FindByTenant(_ context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []invitation.Invitation
	for _, inv := range s.invitations {
		if inv.TenantID == tenantID {
			items = append(items, *inv)
		}
	}
	return kernel.NewPaginated(items, 1, len(items)+1, len(items)), nil
}

func (s *fakeStore) ExistsPendingForEmail(_ context.Context, email string, tenantID kernel.TenantID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invitations {
		if inv.Email == email && inv.TenantID == tenantID && inv.IsPending() && !inv.IsExpired() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Save(_ context.Context, inv invitation.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations[inv.Token] = &inv
	return nil
}

func (s *fakeStore) ConsumePending(_ context.Context, token string, newUser user.User) (*invitation.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[token]
	if !ok {
		return nil, invitation.ErrInvitationNotFound()
	}
	if inv.IsAccepted() {
		return nil, invitation.ErrAlreadyAccepted()
	}
	if inv.IsExpired() {
		return nil, invitation.ErrExpired()
	}
	for _, u := range s.users {
		if u.Email == newUser.Email && u.TenantID == newUser.TenantID {
			return nil, user.ErrUserAlreadyExists()
		}
	}

	now := time.Now().UTC()
	inv.Status = invitation.StatusAccepted
	inv.AcceptedAt = &now
	s.users[newUser.ID] = &newUser

	copied := *inv
	return &copied, nil
}

// --- user.UserRepository ---

func (s *fakeStore) FindByEmail(_ context.Context, email string, tenantID kernel.TenantID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && u.TenantID == tenantID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (s *fakeStore) ExistsByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error) {
	if _, err := s.FindByEmail(ctx, email, tenantID); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *fakeStore) FindUserByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) SaveUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
	return nil
}

// userRepo adapts fakeStore to user.UserRepository without method clashes.
type userRepo struct{ *fakeStore }

func (r userRepo) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return r.FindUserByID(ctx, id)
}

func (r userRepo) Save(ctx context.Context, u user.User) error {
	return r.SaveUser(ctx, u)
}

type fakeMailer struct {
	mu          sync.Mutex
	invitations []string
	welcomes    []string
}

func (m *fakeMailer) SendInvitation(_ context.Context, inv invitation.Invitation, acceptURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, acceptURL)
	return nil
}

func (m *fakeMailer) SendWelcome(_ context.Context, email, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, email)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

type fixture struct {
	store    *fakeStore
	mailer   *fakeMailer
	handoffs *handoffsrv.Service
	service  *invitationsrv.Service
}

func newFixture() *fixture {
	store := newFakeStore()
	mailer := &fakeMailer{}
	handoffs := handoffsrv.NewService(
		handoffinfra.NewMemoryStore(),
		userRepo{store},
		sessioninfra.NewMemoryStore(),
		10*time.Minute,
	)
	service := invitationsrv.NewService(store, userRepo{store}, handoffs, mailer, 7*24*time.Hour)
	return &fixture{store: store, mailer: mailer, handoffs: handoffs, service: service}
}

func adminActor() kernel.AuthContext {
	return kernel.AuthContext{
		UserID:   kernel.NewUserID("admin-1"),
		TenantID: kernel.NewTenantID("t1"),
		Role:     iam.RoleAdmin,
	}
}

func superActor() kernel.AuthContext {
	return kernel.AuthContext{
		UserID: kernel.NewUserID("super-1"),
		Role:   iam.RoleSuper,
	}
}

func acceptURL(token string) string {
	return "https://central.example/invitation/" + token
}

func invite(t *testing.T, f *fixture, tenantID kernel.TenantID, email string) *invitation.Invitation {
	t.Helper()
	actor := adminActor()
	if tenantID.IsEmpty() {
		actor = superActor()
	}
	inv, err := f.service.Invite(context.Background(), actor, invitationsrv.InviteRequest{
		TenantID: tenantID,
		Email:    email,
		Role:     iam.RoleMember,
	}, acceptURL)
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

// ============================================================================
// Invite
// ============================================================================

func TestInvite(t *testing.T) {
	f := newFixture()
	inv := invite(t, f, "t1", "Alice@Acme.Example")

	if inv.Email != "alice@acme.example" {
		t.Errorf("email not normalized: %q", inv.Email)
	}
	if !inv.IsPending() || inv.IsExpired() {
		t.Errorf("fresh invitation state: status=%q expired=%v", inv.Status, inv.IsExpired())
	}
	if len(f.mailer.invitations) != 1 || !strings.Contains(f.mailer.invitations[0], inv.Token) {
		t.Errorf("invitation mail = %v", f.mailer.invitations)
	}
}

func TestInvite_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name  string
		actor kernel.AuthContext
		req   invitationsrv.InviteRequest
	}{
		{"bad email", adminActor(), invitationsrv.InviteRequest{TenantID: "t1", Email: "not-an-email", Role: iam.RoleMember}},
		{"bad role", adminActor(), invitationsrv.InviteRequest{TenantID: "t1", Email: "a@b.example", Role: "owner"}},
		{"central invite by non-super", adminActor(), invitationsrv.InviteRequest{Email: "a@b.example", Role: iam.RoleAdmin}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.service.Invite(ctx, tc.actor, tc.req, acceptURL); err == nil {
				t.Fatal("invite accepted")
			}
		})
	}
}

func TestInvite_DuplicatePending(t *testing.T) {
	f := newFixture()
	invite(t, f, "t1", "alice@acme.example")

	_, err := f.service.Invite(context.Background(), adminActor(), invitationsrv.InviteRequest{
		TenantID: "t1", Email: "alice@acme.example", Role: iam.RoleMember,
	}, acceptURL)
	if !errx.IsCode(err, invitation.CodeAlreadyPending) {
		t.Fatalf("err = %v, want already-pending", err)
	}
}

func TestInvite_ExistingUser(t *testing.T) {
	f := newFixture()
	f.store.SaveUser(context.Background(), user.User{
		ID: "u1", TenantID: "t1", Email: "alice@acme.example",
	})

	_, err := f.service.Invite(context.Background(), adminActor(), invitationsrv.InviteRequest{
		TenantID: "t1", Email: "alice@acme.example", Role: iam.RoleMember,
	}, acceptURL)
	if !errx.IsCode(err, user.CodeUserAlreadyExists) {
		t.Fatalf("err = %v, want user-already-exists", err)
	}
}

// ============================================================================
// Validate
// ============================================================================

func TestValidate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv := invite(t, f, "t1", "alice@acme.example")

	dto, err := f.service.Validate(ctx, inv.Token)
	if err != nil {
		t.Fatal(err)
	}
	if !dto.Valid || dto.Email != "alice@acme.example" || dto.Role != iam.RoleMember {
		t.Errorf("dto = %+v", dto)
	}

	if dto, _ := f.service.Validate(ctx, "no-such-token"); dto.Valid || dto.Reason != invitation.ReasonNotFound {
		t.Errorf("unknown token dto = %+v", dto)
	}
}

func TestValidate_Stale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	expired := invitation.Invitation{
		ID: "i1", TenantID: "t1", Email: "old@acme.example", Role: iam.RoleMember,
		Token: "expired-token", Status: invitation.StatusPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	f.store.Save(ctx, expired)

	if dto, _ := f.service.Validate(ctx, "expired-token"); dto.Valid || dto.Reason != invitation.ReasonExpired {
		t.Errorf("expired dto = %+v", dto)
	}

	inv := invite(t, f, "t1", "alice@acme.example")
	if _, err := f.service.Accept(ctx, inv.Token, invitationsrv.AcceptRequest{Name: "Alice", Password: "hunter2hunter2", PasswordConfirmation: "hunter2hunter2"}); err != nil {
		t.Fatal(err)
	}
	if dto, _ := f.service.Validate(ctx, inv.Token); dto.Valid || dto.Reason != invitation.ReasonAccepted {
		t.Errorf("accepted dto = %+v", dto)
	}
}

// ============================================================================
// Accept
// ============================================================================

func TestAccept(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv := invite(t, f, "t1", "alice@acme.example")

	result, err := f.service.Accept(ctx, inv.Token, invitationsrv.AcceptRequest{
		Name: "Alice", Password: "hunter2hunter2", PasswordConfirmation: "hunter2hunter2",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Handoff == nil || result.Handoff.TenantID != kernel.NewTenantID("t1") {
		t.Fatalf("handoff = %+v", result.Handoff)
	}
	if result.User.Role != iam.RoleMember || !result.User.IsEmailVerified() {
		t.Errorf("user = %+v", result.User)
	}
	if !result.User.CanPasswordLogin() {
		t.Error("accepted user cannot password-login")
	}
	if len(f.mailer.welcomes) != 1 {
		t.Errorf("welcome mails = %v", f.mailer.welcomes)
	}
}

func TestAccept_CentralInviteWithoutPassword(t *testing.T) {
	f := newFixture()
	inv := invite(t, f, "", "root@central.example")

	result, err := f.service.Accept(context.Background(), inv.Token, invitationsrv.AcceptRequest{Name: "Root"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Handoff != nil {
		t.Error("central acceptance produced a handoff token")
	}
	if result.User.CanPasswordLogin() {
		t.Error("password-less account reports password login")
	}
}

func TestAccept_TenantInviteRequiresPassword(t *testing.T) {
	f := newFixture()
	inv := invite(t, f, "t1", "alice@acme.example")

	_, err := f.service.Accept(context.Background(), inv.Token, invitationsrv.AcceptRequest{Name: "Alice"})
	if !errx.IsCode(err, invitation.CodeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

// Racing acceptances of one invitation: exactly one account, one winner.
func TestAccept_ExactlyOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv := invite(t, f, "t1", "alice@acme.example")

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Accept(ctx, inv.Token, invitationsrv.AcceptRequest{
				Name: "Alice", Password: "hunter2hunter2", PasswordConfirmation: "hunter2hunter2",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("invitation accepted %d times, want exactly 1", wins)
	}

	exists, _ := f.store.ExistsByEmail(ctx, "alice@acme.example", "t1")
	if !exists {
		t.Fatal("no account was created")
	}
}

func TestAccept_Expired(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.store.Save(ctx, invitation.Invitation{
		ID: "i1", TenantID: "t1", Email: "old@acme.example", Role: iam.RoleMember,
		Token: "expired-token", Status: invitation.StatusPending,
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	_, err := f.service.Accept(ctx, "expired-token", invitationsrv.AcceptRequest{
		Name: "Old", Password: "hunter2hunter2", PasswordConfirmation: "hunter2hunter2",
	})
	if !errx.IsCode(err, invitation.CodeExpired) {
		t.Fatalf("err = %v, want expired", err)
	}
}

// A failed acceptance must not leave a redeemable handoff token behind.
func TestAccept_FailureRevokesHandoff(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv := invite(t, f, "t1", "alice@acme.example")

	// Pre-create the account so ConsumePending hits the uniqueness check.
	f.store.SaveUser(ctx, user.User{ID: "u9", TenantID: "t1", Email: "alice@acme.example"})

	_, err := f.service.Accept(ctx, inv.Token, invitationsrv.AcceptRequest{
		Name: "Alice", Password: "hunter2hunter2", PasswordConfirmation: "hunter2hunter2",
	})
	if err == nil {
		t.Fatal("acceptance succeeded for an existing account")
	}
}

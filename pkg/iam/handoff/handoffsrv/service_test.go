package handoffsrv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/handoff"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffinfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff/handoffsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[kernel.UserID]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[kernel.UserID]*user.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string, tenantID kernel.TenantID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email && u.TenantID == tenantID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error) {
	_, err := r.FindByEmail(ctx, email, tenantID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) Save(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = &u
	return nil
}

func testUser() *user.User {
	return &user.User{
		ID:       kernel.NewUserID("u1"),
		TenantID: kernel.NewTenantID("t1"),
		Email:    "alice@acme.example",
		Name:     "Alice",
		Role:     "member",
	}
}

func newService(users *fakeUserRepo) (*handoffsrv.Service, *sessioninfra.MemoryStore) {
	sessions := sessioninfra.NewMemoryStore()
	svc := handoffsrv.NewService(handoffinfra.NewMemoryStore(), users, sessions, 10*time.Minute)
	return svc, sessions
}

func TestIssueRedeem(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newService(newFakeUserRepo(testUser()))

	token, err := svc.Issue(ctx, "t1", "u1", "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if token.Value == "" {
		t.Fatal("empty token value")
	}

	sid := kernel.NewSessionID("browser-1")
	redeemed, err := svc.Redeem(ctx, token.Value, "t1", sid)
	if err != nil {
		t.Fatal(err)
	}
	if redeemed.RedirectPath != "/dashboard" {
		t.Errorf("redirect path = %q", redeemed.RedirectPath)
	}

	got, ok, _ := sessions.GetKey(ctx, session.TenantScope("t1"), sid, session.KeyAuthUserID)
	if !ok || got != "u1" {
		t.Fatalf("tenant session auth key = (%q, %v)", got, ok)
	}

	// Nothing may appear in the central scope.
	if _, ok, _ := sessions.GetKey(ctx, session.CentralScope(), sid, session.KeyAuthUserID); ok {
		t.Fatal("redemption wrote into the central scope")
	}
}

// Many racing redemptions of the same token: exactly one wins.
func TestRedeem_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(newFakeUserRepo(testUser()))

	token, err := svc.Issue(ctx, "t1", "u1", "/")
	if err != nil {
		t.Fatal(err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sid := kernel.NewSessionID("browser-" + string(rune('a'+n%26)))
			_, err := svc.Redeem(ctx, token.Value, "t1", sid)
			results <- err
		}(i)
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
		t.Fatalf("token redeemed %d times, want exactly 1", wins)
	}
}

func TestRedeem_TenantMismatchBurnsToken(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newService(newFakeUserRepo(testUser()))

	token, _ := svc.Issue(ctx, "t1", "u1", "/")

	sid := kernel.NewSessionID("browser-1")
	if _, err := svc.Redeem(ctx, token.Value, "t2", sid); err == nil {
		t.Fatal("token redeemed on the wrong tenant")
	}

	// No session anywhere, and the token is already gone.
	if _, ok, _ := sessions.GetKey(ctx, session.TenantScope("t2"), sid, session.KeyAuthUserID); ok {
		t.Fatal("mismatched redemption established a session")
	}
	if _, err := svc.Redeem(ctx, token.Value, "t1", sid); err == nil {
		t.Fatal("token survived a mismatched redemption attempt")
	}
}

func TestRedeem_MissingUserBurnsToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(newFakeUserRepo())

	token, _ := svc.Issue(ctx, "t1", "u1", "/")

	if _, err := svc.Redeem(ctx, token.Value, "t1", kernel.NewSessionID("s1")); err == nil {
		t.Fatal("redeemed a token for a user that does not exist")
	}
	if _, err := svc.Redeem(ctx, token.Value, "t1", kernel.NewSessionID("s1")); err == nil {
		t.Fatal("token survived a failed redemption")
	}
}

func TestRedeem_RevokedToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(newFakeUserRepo(testUser()))

	token, _ := svc.Issue(ctx, "t1", "u1", "/")
	svc.Revoke(ctx, token.Value)

	if _, err := svc.Redeem(ctx, token.Value, "t1", kernel.NewSessionID("s1")); err == nil {
		t.Fatal("redeemed a revoked token")
	}
}

func TestIssue_SanitizesRedirectPath(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(newFakeUserRepo(testUser()))

	for _, bad := range []string{"", "https://evil.example/", "//evil.example/x", "no-leading-slash"} {
		token, err := svc.Issue(ctx, "t1", "u1", bad)
		if err != nil {
			t.Fatal(err)
		}
		if token.RedirectPath != "/" {
			t.Errorf("redirect %q passed through as %q", bad, token.RedirectPath)
		}
	}
}

func TestTokenValuesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		value, err := handoff.NewTokenValue()
		if err != nil {
			t.Fatal(err)
		}
		if seen[value] {
			t.Fatal("duplicate token value")
		}
		seen[value] = true
	}
}

package authsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth"
	"github.com/Abraxas-365/tenantry/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/transition"
	"github.com/Abraxas-365/tenantry/pkg/iam/user"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

type fakeUsers struct {
	byID map[kernel.UserID]*user.User
}

func (r *fakeUsers) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	if u, ok := r.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, user.ErrUserNotFound()
}

func (r *fakeUsers) FindByEmail(_ context.Context, email string, tenantID kernel.TenantID) (*user.User, error) {
	for _, u := range r.byID {
		if u.Email == email && u.TenantID == tenantID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *fakeUsers) ExistsByEmail(ctx context.Context, email string, tenantID kernel.TenantID) (bool, error) {
	_, err := r.FindByEmail(ctx, email, tenantID)
	return err == nil, nil
}

func (r *fakeUsers) Save(_ context.Context, u user.User) error {
	r.byID[u.ID] = &u
	return nil
}

type fixture struct {
	users    *fakeUsers
	sessions *sessioninfra.MemoryStore
	service  *authsrv.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{byID: map[kernel.UserID]*user.User{
		"u1": {
			ID: "u1", Email: "alice@central.example", Name: "Alice",
			Role: "admin", PasswordHash: &hash,
		},
		"u2": {
			ID: "u2", Email: "sso@central.example", Name: "SSO Only",
			Role: "super",
		},
	}}

	sessions := sessioninfra.NewMemoryStore()
	tokens := auth.NewJWTService("test-secret", 15*time.Minute, "tenantry-test")
	coordinator := transition.NewCoordinator(sessions, 5*time.Minute)

	return &fixture{
		users:    users,
		sessions: sessions,
		service:  authsrv.NewService(users, sessions, tokens, coordinator),
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Login(ctx, session.CentralScope(), "", "Alice@Central.Example", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	if result.AccessToken == "" || result.SessionID.IsEmpty() {
		t.Fatalf("result = %+v", result)
	}

	got, ok, _ := f.sessions.GetKey(ctx, session.CentralScope(), result.SessionID, session.KeyAuthUserID)
	if !ok || got != "u1" {
		t.Fatalf("session auth key = (%q, %v)", got, ok)
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		wantCode *errx.ErrorCode
	}{
		{"wrong password", "alice@central.example", "nope", user.CodeInvalidCredentials},
		{"unknown account", "ghost@central.example", "whatever", user.CodeInvalidCredentials},
		{"password-less account", "sso@central.example", "whatever", user.CodeNoPasswordLogin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Login(ctx, session.CentralScope(), "", tc.email, tc.password)
			if !errx.IsCode(err, tc.wantCode) {
				t.Fatalf("err = %v, want %s", err, tc.wantCode.Code)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.Login(ctx, session.CentralScope(), "", "alice@central.example", "correct horse battery")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.Logout(ctx, session.CentralScope(), result.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.sessions.GetKey(ctx, session.CentralScope(), result.SessionID, session.KeyAuthUserID); ok {
		t.Fatal("session survived logout")
	}
}

func TestCompleteTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := kernel.NewSessionID("s1")

	f.sessions.SetKeys(ctx, session.CentralScope(), sid, map[string]string{
		session.KeyAuthUserID: "u1",
		"tenant.current_id":   "t1",
	})

	if err := f.service.PrepareTransition(ctx, sid); err != nil {
		t.Fatal(err)
	}
	if err := f.service.CompleteTransition(ctx, sid); err != nil {
		t.Fatal(err)
	}

	values, _ := f.sessions.Get(ctx, session.CentralScope(), sid)
	if values[session.KeyAuthUserID] != "u1" {
		t.Error("auth key removed during transition cleanup")
	}
	for key := range values {
		if session.IsTenantKey(key) {
			t.Errorf("tenant key %q survived transition cleanup", key)
		}
	}

	// The marker is single-use.
	if err := f.service.CompleteTransition(ctx, sid); !errx.IsCode(err, transition.CodeMarkerMissing) {
		t.Fatalf("second completion err = %v, want marker-missing", err)
	}
}

func TestCompleteTransition_WithoutMarker(t *testing.T) {
	f := newFixture(t)

	err := f.service.CompleteTransition(context.Background(), kernel.NewSessionID("s1"))
	if !errx.IsCode(err, transition.CodeMarkerMissing) {
		t.Fatalf("err = %v, want marker-missing", err)
	}
}

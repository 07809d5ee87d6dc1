package transition_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/iam/transition"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

func TestPrepareThenValidate(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	coord := transition.NewCoordinator(store, 5*time.Minute)
	sid := kernel.NewSessionID("s1")

	if err := coord.Prepare(ctx, sid); err != nil {
		t.Fatal(err)
	}

	ok, err := coord.Validate(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("fresh marker did not validate")
	}
}

func TestValidate_ConsumesMarkerOnFirstRead(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	coord := transition.NewCoordinator(store, 5*time.Minute)
	sid := kernel.NewSessionID("s1")

	if err := coord.Prepare(ctx, sid); err != nil {
		t.Fatal(err)
	}

	if ok, _ := coord.Validate(ctx, sid); !ok {
		t.Fatal("first validation failed")
	}
	if ok, _ := coord.Validate(ctx, sid); ok {
		t.Fatal("marker validated twice")
	}

	if _, present, _ := store.GetKey(ctx, session.CentralScope(), sid, transition.KeyMarker); present {
		t.Fatal("marker key survived validation")
	}
	if _, present, _ := store.GetKey(ctx, session.CentralScope(), sid, transition.KeyIssuedAt); present {
		t.Fatal("issued-at key survived validation")
	}
}

func TestValidate_NoMarker(t *testing.T) {
	coord := transition.NewCoordinator(sessioninfra.NewMemoryStore(), 5*time.Minute)

	ok, err := coord.Validate(context.Background(), kernel.NewSessionID("s1"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("validated a session without a marker")
	}
}

// Expiry is measured from the recorded issue time. The boundary cases write
// the issue timestamp directly instead of sleeping through the TTL.
func TestValidate_TTLBoundary(t *testing.T) {
	ttl := 5 * time.Minute

	cases := []struct {
		name   string
		age    time.Duration
		wantOK bool
	}{
		{"just inside window", ttl - time.Second, true},
		{"just past window", ttl + time.Second, false},
		{"far past window", time.Hour, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := sessioninfra.NewMemoryStore()
			coord := transition.NewCoordinator(store, ttl)
			sid := kernel.NewSessionID("s1")

			err := store.SetKeys(ctx, session.CentralScope(), sid, map[string]string{
				transition.KeyMarker:   "1",
				transition.KeyIssuedAt: time.Now().UTC().Add(-tc.age).Format(time.RFC3339Nano),
			})
			if err != nil {
				t.Fatal(err)
			}

			ok, err := coord.Validate(ctx, sid)
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.wantOK {
				t.Fatalf("Validate = %v, want %v", ok, tc.wantOK)
			}
		})
	}
}

func TestValidate_MalformedIssuedAt(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	coord := transition.NewCoordinator(store, 5*time.Minute)
	sid := kernel.NewSessionID("s1")

	store.SetKeys(ctx, session.CentralScope(), sid, map[string]string{
		transition.KeyMarker:   "1",
		transition.KeyIssuedAt: "not-a-timestamp",
	})

	ok, err := coord.Validate(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("validated a marker with an unreadable issue time")
	}
	if _, present, _ := store.GetKey(ctx, session.CentralScope(), sid, transition.KeyMarker); present {
		t.Fatal("malformed marker was not consumed")
	}
}

func TestCleanTenantKeys(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	coord := transition.NewCoordinator(store, 5*time.Minute)
	sid := kernel.NewSessionID("s1")

	store.SetKeys(ctx, session.CentralScope(), sid, map[string]string{
		session.KeyAuthUserID: "u1",
		session.KeyCSRFToken:  "csrf",
		"tenant.current_id":   "t1",
		"tenant.role":         "admin",
		"theme":               "dark",
	})

	if err := coord.CleanTenantKeys(ctx, sid); err != nil {
		t.Fatal(err)
	}

	values, err := store.Get(ctx, session.CentralScope(), sid)
	if err != nil {
		t.Fatal(err)
	}

	if values[session.KeyAuthUserID] != "u1" {
		t.Error("auth key was removed")
	}
	if values[session.KeyCSRFToken] != "csrf" {
		t.Error("csrf key was removed")
	}
	if values["theme"] != "dark" {
		t.Error("unrelated key was removed")
	}
	for key := range values {
		if session.IsTenantKey(key) {
			t.Errorf("tenant key %q survived cleanup", key)
		}
	}
}

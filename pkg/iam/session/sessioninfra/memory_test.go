package sessioninfra_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	scope := session.CentralScope()
	sid := kernel.NewSessionID("s1")

	if err := store.SetKeys(ctx, scope, sid, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatal(err)
	}

	value, ok, err := store.GetKey(ctx, scope, sid, "a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("GetKey = (%q, %v, %v)", value, ok, err)
	}

	if err := store.DeleteKeys(ctx, scope, sid, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.GetKey(ctx, scope, sid, "a"); ok {
		t.Fatal("key survived deletion")
	}

	values, err := store.Get(ctx, scope, sid)
	if err != nil || len(values) != 1 || values["b"] != "2" {
		t.Fatalf("Get = (%v, %v)", values, err)
	}
}

// Setting a key under one scope must never be observable under another
// scope, even for the same session ID.
func TestMemoryStore_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	sid := kernel.NewSessionID("shared-id")

	scopeA := session.TenantScope(kernel.NewTenantID("tenant-a"))
	scopeB := session.TenantScope(kernel.NewTenantID("tenant-b"))
	central := session.CentralScope()

	if err := store.SetKeys(ctx, scopeA, sid, map[string]string{"k": "secret-a"}); err != nil {
		t.Fatal(err)
	}

	for _, other := range []session.Scope{scopeB, central} {
		if _, ok, _ := store.GetKey(ctx, other, sid, "k"); ok {
			t.Fatalf("key leaked from %q into %q", scopeA, other)
		}
		values, _ := store.Get(ctx, other, sid)
		if len(values) != 0 {
			t.Fatalf("scope %q sees foreign session data: %v", other, values)
		}
	}
}

func TestMemoryStore_DestroyRemovesOnlyOneScope(t *testing.T) {
	ctx := context.Background()
	store := sessioninfra.NewMemoryStore()
	sid := kernel.NewSessionID("s1")

	central := session.CentralScope()
	tenantScope := session.TenantScope(kernel.NewTenantID("t1"))

	store.SetKeys(ctx, central, sid, map[string]string{"k": "central"})
	store.SetKeys(ctx, tenantScope, sid, map[string]string{"k": "tenant"})

	if err := store.Destroy(ctx, tenantScope, sid); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := store.GetKey(ctx, tenantScope, sid, "k"); ok {
		t.Fatal("destroyed session still readable")
	}
	if value, ok, _ := store.GetKey(ctx, central, sid, "k"); !ok || value != "central" {
		t.Fatal("destroying a tenant session touched the central session")
	}
}

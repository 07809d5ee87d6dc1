package session_test

import (
	"testing"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

func testResolver() *session.ConfigResolver {
	return session.NewConfigResolver("hub_session", "hub_tenant_", true, 12*time.Hour)
}

func centralClass() realm.DomainClass {
	return realm.DomainClass{Class: realm.ClassCentral, Host: "central.example"}
}

func tenantClass(host string) realm.DomainClass {
	return realm.DomainClass{Class: realm.ClassTenant, Host: host}
}

func TestCookieFor_CentralPolicy(t *testing.T) {
	policy := testResolver().CookieFor(centralClass(), "")

	if policy.Name != "hub_session" {
		t.Errorf("central cookie name = %q", policy.Name)
	}
	if policy.Domain != "central.example" {
		t.Errorf("central cookie domain = %q", policy.Domain)
	}
	if !policy.HTTPOnly || policy.SameSite != "Lax" || !policy.Secure {
		t.Errorf("central cookie flags = %+v", policy)
	}
}

func TestCookieFor_TenantNamesAreDeterministic(t *testing.T) {
	r := testResolver()
	dc := tenantClass("acme.example")

	a := r.CookieFor(dc, kernel.NewTenantID("tenant-a"))
	b := r.CookieFor(dc, kernel.NewTenantID("tenant-a"))
	if a.Name != b.Name {
		t.Fatalf("same tenant produced different cookie names: %q vs %q", a.Name, b.Name)
	}
}

func TestCookieFor_TenantNamesNeverCollide(t *testing.T) {
	r := testResolver()
	dc := tenantClass("shared.example")

	a := r.CookieFor(dc, kernel.NewTenantID("tenant-a"))
	b := r.CookieFor(dc, kernel.NewTenantID("tenant-b"))

	if a.Name == b.Name {
		t.Fatalf("two tenants share cookie name %q", a.Name)
	}
	if a.Name == "hub_session" || b.Name == "hub_session" {
		t.Fatal("tenant cookie name collided with the central cookie name")
	}
}

func TestCookieFor_HTTPOnlyAlways(t *testing.T) {
	r := session.NewConfigResolver("s", "t_", false, time.Hour)

	for _, policy := range []session.CookiePolicy{
		r.CookieFor(centralClass(), ""),
		r.CookieFor(tenantClass("acme.example"), kernel.NewTenantID("t1")),
	} {
		if !policy.HTTPOnly {
			t.Errorf("policy %q is not HttpOnly", policy.Name)
		}
		if policy.SameSite != "Lax" {
			t.Errorf("policy %q SameSite = %q, want Lax", policy.Name, policy.SameSite)
		}
	}
}

func TestScopeFor(t *testing.T) {
	if got := session.ScopeFor(centralClass(), ""); !got.IsCentral() {
		t.Errorf("central domain scope = %q", got)
	}

	got := session.ScopeFor(tenantClass("acme.example"), kernel.NewTenantID("t1"))
	if got.IsCentral() || got != session.TenantScope("t1") {
		t.Errorf("tenant domain scope = %q", got)
	}
}

func TestTenantCookieSuffix_Stable(t *testing.T) {
	a := session.TenantCookieSuffix(kernel.NewTenantID("t1"))
	b := session.TenantCookieSuffix(kernel.NewTenantID("t1"))
	c := session.TenantCookieSuffix(kernel.NewTenantID("t2"))

	if a != b {
		t.Fatal("suffix is not stable")
	}
	if a == c {
		t.Fatal("different tenants share a suffix")
	}
	if len(a) != 12 {
		t.Fatalf("suffix length = %d, want 12", len(a))
	}
}

func TestIsTenantKey(t *testing.T) {
	if !session.IsTenantKey("tenant.current_id") {
		t.Error("tenant.current_id should be a tenant key")
	}
	if session.IsTenantKey(session.KeyAuthUserID) {
		t.Error("auth key must not be a tenant key")
	}
	if session.IsTenantKey(session.KeyCSRFToken) {
		t.Error("csrf key must not be a tenant key")
	}
}

package realm_test

import (
	"testing"

	"github.com/Abraxas-365/tenantry/pkg/iam/realm"
)

func newTestClassifier() *realm.Classifier {
	return realm.NewClassifier(
		[]string{"central.example", "Admin.Example:8080"},
		"tenants.example",
	)
}

func TestClassify_CentralAllowList(t *testing.T) {
	c := newTestClassifier()

	cases := []struct {
		host string
		want realm.Class
	}{
		{"central.example", realm.ClassCentral},
		{"CENTRAL.EXAMPLE", realm.ClassCentral},
		{"central.example:443", realm.ClassCentral},
		{"admin.example", realm.ClassCentral}, // allow-list entries are normalized too
		{"acme.example", realm.ClassTenant},
		{"acme.tenants.example", realm.ClassTenant},
		{"sub.central.example", realm.ClassTenant}, // no wildcarding of central domains
		{"", realm.ClassTenant},
	}

	for _, tc := range cases {
		got := c.Classify(tc.host)
		if got.Class != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.host, got.Class, tc.want)
		}
	}
}

func TestClassify_NormalizesHost(t *testing.T) {
	c := newTestClassifier()

	dc := c.Classify("ACME.Example:8443")
	if dc.Host != "acme.example" {
		t.Fatalf("expected normalized host acme.example, got %q", dc.Host)
	}
	if !dc.IsTenant() {
		t.Fatal("expected tenant classification")
	}
}

func TestUnderTenantSuffix(t *testing.T) {
	c := newTestClassifier()

	cases := []struct {
		host string
		want bool
	}{
		{"acme.tenants.example", true},
		{"ACME.TENANTS.EXAMPLE:443", true},
		{"tenants.example", false},          // the suffix itself is not a subdomain
		{"a.b.tenants.example", false},      // only one label above the suffix
		{"acme.example", false},
		{"acme.tenants.example.evil", false},
	}

	for _, tc := range cases {
		if got := c.UnderTenantSuffix(tc.host); got != tc.want {
			t.Errorf("UnderTenantSuffix(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

func TestUnderTenantSuffix_NoSuffixConfigured(t *testing.T) {
	c := realm.NewClassifier([]string{"central.example"}, "")
	if c.UnderTenantSuffix("acme.tenants.example") {
		t.Fatal("expected false when no suffix is configured")
	}
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Acme.Example":      "acme.example",
		"acme.example:8080": "acme.example",
		"  host ":           "host",
		"":                  "",
	}

	for in, want := range cases {
		if got := realm.NormalizeHost(in); got != want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
}

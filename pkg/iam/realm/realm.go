package realm

import (
	"net"
	"net/http"
	"strings"

	"github.com/Abraxas-365/tenantry/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("REALM")

var (
	CodeUnknownTenantDomain = ErrRegistry.Register("UNKNOWN_TENANT_DOMAIN", errx.TypeNotFound, http.StatusNotFound, "No tenant registered for this domain")
	CodeMissingHost         = ErrRegistry.Register("MISSING_HOST", errx.TypeValidation, http.StatusBadRequest, "Request carries no host")
)

func ErrUnknownTenantDomain() *errx.Error {
	return ErrRegistry.New(CodeUnknownTenantDomain)
}

func ErrMissingHost() *errx.Error {
	return ErrRegistry.New(CodeMissingHost)
}

// ============================================================================
// Domain Classification
// ============================================================================

// Class is the closed set of domain classes a host can fall into.
type Class string

const (
	// ClassCentral marks hosts on the central directory allow-list.
	ClassCentral Class = "CENTRAL"

	// ClassTenant marks every other host; tenant binding happens in the
	// resolver, never here.
	ClassTenant Class = "TENANT"
)

// DomainClass is the result of classifying one request host. It is produced
// exactly once per request and threaded through the call chain; nothing
// downstream re-derives it from the raw host.
type DomainClass struct {
	Class Class  `json:"class"`
	Host  string `json:"host"` // normalized: lowercase, port stripped
}

// IsCentral reports whether the host was classified as central.
func (d DomainClass) IsCentral() bool { return d.Class == ClassCentral }

// IsTenant reports whether the host was classified as tenant.
func (d DomainClass) IsTenant() bool { return d.Class == ClassTenant }

// Classifier classifies request hosts against the configured central
// allow-list. It holds no mutable state and performs no I/O.
type Classifier struct {
	central      map[string]struct{}
	tenantSuffix string
}

// NewClassifier builds a classifier from the exact-match central domain
// allow-list and the optional platform tenant suffix.
func NewClassifier(centralDomains []string, tenantSuffix string) *Classifier {
	central := make(map[string]struct{}, len(centralDomains))
	for _, d := range centralDomains {
		if normalized := NormalizeHost(d); normalized != "" {
			central[normalized] = struct{}{}
		}
	}

	return &Classifier{
		central:      central,
		tenantSuffix: NormalizeHost(tenantSuffix),
	}
}

// Classify maps a raw request host to its DomainClass. Central domains match
// exactly (case-insensitive, port ignored); anything else is presumed tenant
// and must be bound through the tenant resolver.
func (c *Classifier) Classify(host string) DomainClass {
	normalized := NormalizeHost(host)

	if _, ok := c.central[normalized]; ok {
		return DomainClass{Class: ClassCentral, Host: normalized}
	}
	return DomainClass{Class: ClassTenant, Host: normalized}
}

// UnderTenantSuffix reports whether a host is a direct subdomain of the
// configured platform suffix (*.suffix). Used when provisioning platform
// subdomains; classification itself never wildcards.
func (c *Classifier) UnderTenantSuffix(host string) bool {
	if c.tenantSuffix == "" {
		return false
	}

	normalized := NormalizeHost(host)
	if !strings.HasSuffix(normalized, "."+c.tenantSuffix) {
		return false
	}

	// Exactly one label above the suffix.
	label := strings.TrimSuffix(normalized, "."+c.tenantSuffix)
	return label != "" && !strings.Contains(label, ".")
}

// NormalizeHost lowercases a host and strips any port.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return ""
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

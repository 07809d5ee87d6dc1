package config

// RealmConfig configures domain classification: which hosts belong to the
// central directory and which suffix platform subdomains live under.
type RealmConfig struct {
	// CentralDomains is the exact-match allow-list of central hosts.
	CentralDomains []string

	// TenantSuffix is the suffix platform tenant subdomains live under
	// (e.g. "tenants.example.com" for acme.tenants.example.com). Custom
	// tenant domains outside the suffix are resolved through the domain
	// table like any other host.
	TenantSuffix string
}

func loadRealmConfig() RealmConfig {
	return RealmConfig{
		CentralDomains: getEnvStringSlice("CENTRAL_DOMAINS", []string{"localhost"}),
		TenantSuffix:   getEnv("TENANT_DOMAIN_SUFFIX", ""),
	}
}

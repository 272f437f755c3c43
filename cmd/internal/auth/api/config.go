package authapi

import "ozran/cmd/internal/auth/cookie"

// Config controls auth API transport behavior.
type Config struct {
	// Production enables Secure cookies regardless of the request transport.
	Production bool
	// ForceHTTPS treats every request as HTTPS (USE_HTTPS deployments behind plain-HTTP hops).
	ForceHTTPS bool
	// TrustProxy honors X-Forwarded-Proto / X-Forwarded-For.
	TrustProxy bool
	// CrossSite issues SameSite=None cookies. Requires Production or ForceHTTPS.
	CrossSite bool
	// CookieName is the session cookie name.
	CookieName string
	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64
	// FingerprintKey keys the email fingerprints written to audit rows.
	FingerprintKey []byte
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.CookieName == "" {
		c.CookieName = cookie.DefaultName
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20 // 1 MiB
	}
	return c
}

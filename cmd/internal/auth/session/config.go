package session

import "time"

// DefaultTTL is the lifetime of a session token.
const DefaultTTL = time.Hour

// Config defines runtime configuration for the session codec.
type Config struct {
	// Secret is the HMAC key. It is loaded once at startup and never logged.
	Secret []byte

	// TTL is the token lifetime (exp = iat + TTL).
	TTL time.Duration

	// Issuer, when set, is written to and required in the "iss" claim.
	Issuer string
}

// DefaultConfig returns the default configuration without a secret.
func DefaultConfig() Config {
	return Config{
		TTL:    DefaultTTL,
		Issuer: "ozran",
	}
}

// Check fills defaults and validates cfg.
// Returns ErrConfig if the secret is empty or TTL is negative.
func (c Config) Check() (Config, error) {
	if len(c.Secret) == 0 {
		return Config{}, ErrConfig
	}
	if c.TTL < 0 {
		return Config{}, ErrConfig
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	return c, nil
}

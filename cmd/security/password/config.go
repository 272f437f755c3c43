package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used for new hashes.
	DefaultCost = 10

	// MaxCost caps the configurable work factor. bcrypt allows 31, which would stall logins for minutes.
	MaxCost = 14

	// maxInputBytes is bcrypt's input limit.
	maxInputBytes = 72

	// DefaultSymbols is the punctuation set a registration password must draw from.
	DefaultSymbols = "!@#$%^&*"
)

// Policy controls password validation at registration time.
type Policy struct {
	MinLength int
	// MaxBytes is clamped to bcrypt's 72-byte input limit.
	MaxBytes int
	// Symbols lists the characters that satisfy the "symbol" class.
	Symbols string
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Cost   int
	Policy Policy
}

// DefaultConfig returns the baseline used by the auth service.
func DefaultConfig() Config {
	return Config{
		Cost: DefaultCost,
		Policy: Policy{
			MinLength:      8,
			MaxBytes:       maxInputBytes,
			Symbols:        DefaultSymbols,
			RejectVeryWeak: false,
		},
	}
}

// Check validates the configuration and fills zero values with defaults.
func (c Config) Check() (Config, error) {
	def := DefaultConfig()

	if c.Cost == 0 {
		c.Cost = def.Cost
	}
	if c.Cost < bcrypt.MinCost || c.Cost > MaxCost {
		return Config{}, fmt.Errorf("%w: bcrypt cost %d out of range [%d..%d]", ErrConfig, c.Cost, bcrypt.MinCost, MaxCost)
	}

	if c.Policy.MinLength <= 0 {
		c.Policy.MinLength = def.Policy.MinLength
	}
	if c.Policy.MaxBytes <= 0 || c.Policy.MaxBytes > maxInputBytes {
		c.Policy.MaxBytes = maxInputBytes
	}
	if c.Policy.Symbols == "" {
		c.Policy.Symbols = def.Policy.Symbols
	}

	if c.Policy.MinLength > c.Policy.MaxBytes {
		return Config{}, fmt.Errorf(
			"%w: min_len(%d) > max_bytes(%d)",
			ErrConfig,
			c.Policy.MinLength,
			c.Policy.MaxBytes,
		)
	}

	return c, nil
}

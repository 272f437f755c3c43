package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt.
// It is immutable after construction and safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher from cfg. Zero values fall back to DefaultConfig.
func NewHasher(cfg Config) (*Hasher, error) {
	cfg, err := cfg.Check()
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cfg.Cost}, nil
}

// Cost reports the work factor used for new hashes.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of password.
// Policy is not checked here; callers validate input first.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > maxInputBytes {
		return "", ErrPasswordTooLong
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, error wrapping ErrInvalidHash) for malformed/unsupported hashes.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}

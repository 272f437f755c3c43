package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// MinProductionBytes is the minimum secret size enforced in production (HMAC-SHA256 block-sized keys).
	MinProductionBytes = 32

	// fingerprintLen is the number of hex chars kept from a fingerprint.
	fingerprintLen = 16
)

// ParseSecret trims raw and enforces a minimum byte length.
// If raw is blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func ParseSecret(raw string, minBytes int) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// Fingerprint returns a short keyed digest of s, stable for a given key.
// Empty input yields an empty fingerprint.
func Fingerprint(s string, key []byte) string {
	if s == "" {
		return ""
	}
	return HashHMACSHA256Hex(s, key)[:fingerprintLen]
}

package app

import (
	"errors"
	"fmt"

	"ozran/cmd/security/token"
)

// sessionKeys derives the JWT signing secret and the audit fingerprint key from cfg.
// Production requires at least token.MinProductionBytes of secret.
func sessionKeys(cfg Config) (secret, fingerprintKey []byte, err error) {
	minBytes := 1
	if cfg.Production() {
		minBytes = token.MinProductionBytes
	}

	secret, err = token.ParseSecret(cfg.JWTSecret, minBytes)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return nil, nil, errors.New("security policy: OZRAN_JWT_SECRET is missing")
		case errors.Is(err, token.ErrSecretTooShort):
			return nil, nil, fmt.Errorf("security policy: OZRAN_JWT_SECRET is too short (min %d bytes)", minBytes)
		default:
			return nil, nil, err
		}
	}

	// Separate key so audit fingerprints cannot be used to test JWT signatures.
	fingerprintKey = []byte(token.HashHMACSHA256Hex("ozran.audit.email-fingerprint", secret))
	return secret, fingerprintKey, nil
}

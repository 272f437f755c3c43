package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim is the identity envelope carried by a session token.
type Claim struct {
	UserID    string
	Email     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the wire shape of a session token payload.
type tokenClaims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Codec issues and verifies session tokens. It is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewCodec builds a Codec from cfg. It fails with ErrConfig when the secret is empty.
func NewCodec(cfg Config) (*Codec, error) {
	cfg, err := cfg.Check()
	if err != nil {
		return nil, err
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{secret: secret, ttl: cfg.TTL, issuer: cfg.Issuer}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs claim with iat = now and exp = now + TTL.
// IssuedAt/ExpiresAt on the input are ignored.
func (c *Codec) Issue(claim Claim, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(claim.UserID) == "" {
		return "", time.Time{}, errors.New("session: missing user id")
	}

	exp := now.Add(c.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:   claim.UserID,
		Email:    claim.Email,
		Username: claim.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	// NumericDate has second precision; report what the token actually says.
	return signed, jwt.NewNumericDate(exp).Time, nil
}

// Verify checks signature, algorithm, and expiry at now, and returns the claim.
// Every failure is reported as ErrInvalidToken.
func (c *Codec) Verify(token string, now time.Time) (Claim, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claim{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var tc tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Claim{}, ErrInvalidToken
	}

	if tc.UserID == "" || tc.Email == "" || tc.Username == "" || tc.IssuedAt == nil {
		return Claim{}, ErrInvalidToken
	}

	return Claim{
		UserID:    tc.UserID,
		Email:     tc.Email,
		Username:  tc.Username,
		IssuedAt:  tc.IssuedAt.Time,
		ExpiresAt: tc.ExpiresAt.Time,
	}, nil
}

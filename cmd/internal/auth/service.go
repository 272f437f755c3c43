// Package auth orchestrates registration, login and session checks.
//
// The Service combines the user store, the password hasher and the session
// codec, and reports every failure as an *Error with a stable kind. It is
// transport-agnostic: cookies and HTTP status codes live in auth/api.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"ozran/cmd/identity"
	"ozran/cmd/internal/auth/session"
	"ozran/cmd/security/password"
)

const (
	maxUsernameRunes = 64
	maxEmailRunes    = 254
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput is the explicit register schema. Nil means the field was absent.
type RegisterInput struct {
	Username        *string
	Email           *string
	Password        *string
	ConfirmPassword *string
}

// LoginInput is the explicit login schema.
type LoginInput struct {
	Email    *string
	Password *string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User      identity.User
	Token     string
	ExpiresAt time.Time
}

// Service implements the auth operations.
type Service struct {
	log    *slog.Logger
	store  identity.Store
	hasher *password.Hasher
	policy password.Policy
	codec  *session.Codec
	now    func() time.Time

	dummyHash string
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService constructs a Service. All dependencies are required.
func NewService(store identity.Store, hasher *password.Hasher, policy password.Policy, codec *session.Codec, opts ...Option) (*Service, error) {
	if store == nil || hasher == nil || codec == nil {
		return nil, errors.New("auth: missing dependency")
	}

	s := &Service{
		log:    slog.Default(),
		store:  store,
		hasher: hasher,
		policy: policy,
		codec:  codec,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}

	// Dummy hash for timing-resistant login checks.
	hash, err := hasher.Hash("dummy-password-for-timing-only")
	if err != nil {
		return nil, err
	}
	s.dummyHash = hash

	return s, nil
}

// Register validates in and creates the account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.User, error) {
	username := trimmed(in.Username)
	email := trimmed(in.Email)
	pw := value(in.Password)

	if username == "" || email == "" || pw == "" {
		return identity.User{}, newError(ErrValidation, MsgAllFieldsRequired, nil)
	}
	// An empty confirmation counts as not supplied.
	if confirm := value(in.ConfirmPassword); confirm != "" && confirm != pw {
		return identity.User{}, newError(ErrPasswordMismatch, MsgPasswordsMismatch, nil)
	}
	if utf8.RuneCountInString(username) > maxUsernameRunes || utf8.RuneCountInString(email) > maxEmailRunes {
		return identity.User{}, newError(ErrValidation, MsgFieldTooLong, nil)
	}
	if !ValidEmail(email) {
		return identity.User{}, newError(ErrValidation, MsgInvalidEmail, nil)
	}
	if err := s.policy.Validate(pw); err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooLong):
			return identity.User{}, newError(ErrValidation, MsgPasswordTooLong, err)
		case errors.Is(err, password.ErrPasswordTooShort):
			return identity.User{}, newError(ErrWeakPassword, MsgPasswordTooShort, err)
		default:
			return identity.User{}, newError(ErrWeakPassword, MsgWeakPassword, err)
		}
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return identity.User{}, newError(ErrInternal, MsgInternal, err)
	}

	u, err := s.store.CreateUser(ctx, identity.CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Now:          s.now(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			return identity.User{}, newError(ErrDuplicateIdentity, MsgDuplicateIdentity, err)
		case identity.IsUnavailable(err):
			return identity.User{}, newError(ErrStoreUnavailable, MsgStoreUnavailable, err)
		default:
			return identity.User{}, newError(ErrInternal, MsgInternal, err)
		}
	}

	s.log.Info("auth.register.ok", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and issues a session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := trimmed(in.Email)
	pw := value(in.Password)
	if email == "" || pw == "" {
		return LoginResult{}, newError(ErrValidation, MsgEmailPasswordNeeded, nil)
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		switch {
		case identity.IsNotFound(err), identity.IsInvalidInput(err):
			// Timing resistance: perform a dummy verify when the user is missing.
			_, _ = s.hasher.Verify(pw, s.dummyHash)
			return LoginResult{}, newError(ErrInvalidCredentials, MsgInvalidCredentials, nil)
		case identity.IsUnavailable(err):
			return LoginResult{}, newError(ErrStoreUnavailable, MsgStoreUnavailable, err)
		default:
			return LoginResult{}, newError(ErrInternal, MsgInternal, err)
		}
	}

	ok, err := s.hasher.Verify(pw, u.PasswordHash)
	if err != nil {
		return LoginResult{}, newError(ErrInternal, MsgInternal, err)
	}
	if !ok {
		return LoginResult{}, newError(ErrInvalidCredentials, MsgInvalidCredentials, nil)
	}

	tok, exp, err := s.codec.Issue(session.Claim{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
	}, s.now())
	if err != nil {
		return LoginResult{}, newError(ErrInternal, MsgInternal, err)
	}

	return LoginResult{User: u, Token: tok, ExpiresAt: exp}, nil
}

// AuthStatus verifies a presented token.
func (s *Service) AuthStatus(token string) (session.Claim, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return session.Claim{}, newError(ErrUnauthenticated, MsgNotAuthenticated, nil)
	}
	claim, err := s.codec.Verify(token, s.now())
	if err != nil {
		return session.Claim{}, newError(ErrInvalidToken, MsgInvalidSession, err)
	}
	// Every issued token carries a store-generated ULID; anything else was not minted by Login.
	if !identity.ValidUserID(claim.UserID) {
		return session.Claim{}, newError(ErrInvalidToken, MsgInvalidSession, errors.New("malformed subject"))
	}
	return claim, nil
}

// TokenTTL returns the session lifetime.
func (s *Service) TokenTTL() time.Duration { return s.codec.TTL() }

// ValidEmail reports whether s has the shape local@domain.tld.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// value returns *p without trimming; passwords are taken verbatim.
func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
// Records are lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	byEmail    map[string]User
	byUsername map[string]string // username -> email
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail:    make(map[string]User),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	if err := ctx.Err(); err != nil {
		return User{}, OpError{Op: op, Kind: ErrUnavailable, Err: err}
	}
	email = NormalizeEmail(email)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}

	s.mu.RLock()
	u, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, OpError{Op: op, Kind: ErrUnavailable, Err: err}
	}

	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)
	switch {
	case username == "":
		return User{}, pgInvalid(op, "username is required")
	case email == "":
		return User{}, pgInvalid(op, "email is required")
	case strings.TrimSpace(in.PasswordHash) == "":
		return User{}, pgInvalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return User{}, ConflictError{Op: op, Field: "email"}
	}
	if _, ok := s.byUsername[username]; ok {
		return User{}, ConflictError{Op: op, Field: "username"}
	}

	u := User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}
	s.byEmail[email] = u
	s.byUsername[username] = email
	return u, nil
}

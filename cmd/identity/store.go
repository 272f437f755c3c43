package identity

import (
	"context"
	"time"
)

// User is ozran's stored account record.
// PasswordHash is an encoded bcrypt hash; the plaintext is never stored.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput describes a new account. The password is already hashed.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the user-record persistence boundary.
//
// Contract:
// - GetUserByEmail returns a NotFoundError when no record matches.
// - CreateUser returns a ConflictError naming "email" or "username" on a uniqueness violation.
// - Connectivity failures wrap ErrUnavailable.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
}

package auth

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; the HTTP layer maps each to a status code.
var (
	ErrValidation         = errors.New("validation failed")
	ErrPasswordMismatch   = errors.New("password mismatch")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInternal           = errors.New("internal error")
)

// Error is returned by every Service operation.
// Message is safe to show to clients; Err is the underlying cause and is only logged.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Client-facing messages.
const (
	MsgAllFieldsRequired   = "All fields are required"
	MsgInvalidEmail        = "Invalid email format"
	MsgPasswordsMismatch   = "Passwords do not match"
	MsgWeakPassword        = "Password must include uppercase, lowercase, number, and special character"
	MsgPasswordTooShort    = "Password must be at least 8 characters long"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgFieldTooLong        = "Username or email is too long"
	MsgDuplicateIdentity   = "Email or username already taken"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgStoreUnavailable    = "Unable to reach the user store. Please try again later."
	MsgInternal            = "Internal server error"
	MsgNotAuthenticated    = "Not authenticated"
	MsgInvalidSession      = "Invalid or expired session"
	MsgEmailPasswordNeeded = "Email and password are required"
)

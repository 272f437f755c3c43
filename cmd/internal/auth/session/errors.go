package session

import "errors"

var (
	// ErrInvalidToken is returned when a token is missing, malformed, signed with another
	// key or algorithm, expired, or carries incomplete claims. Callers cannot tell these apart.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

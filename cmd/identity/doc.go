// Package identity implements ozran's user-record persistence.
//
// It owns the User model, the Store boundary used by the auth service, and
// the classification of storage failures into stable kinds (conflict, not
// found, unavailable) that the HTTP layer maps to status codes.
package identity

// Package password provides password hashing and verification utilities for ozran.
//
// It implements bcrypt hashing at a fixed cost and includes:
// - A registration strength policy (length plus character classes)
// - Strict separation between "mismatch" and "broken hash" during Verify
//
// Security notes:
// - Plaintext passwords are never logged or persisted by this package.
// - bcrypt only reads the first 72 bytes of input, so longer inputs are refused outright.
package password

// Package token provides the signing-secret primitives for ozran.
//
// It is the single source of truth for how the session signing secret is read and vetted:
// - A missing secret is always an error (no insecure fallback).
// - Production deployments must use a secret of at least MinProductionBytes.
//
// It also offers keyed fingerprints so identifiers (emails) can be correlated in logs
// and audit rows without writing them in clear text.
package token

package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyUniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{name: "email constraint", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, wantField: "email", wantOK: true},
		{name: "username constraint", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, wantField: "username", wantOK: true},
		{name: "unknown unique", err: &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}, wantField: "unique", wantOK: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), wantField: "email", wantOK: true},
		{name: "not unique", err: &pgconn.PgError{Code: "23503"}, wantOK: false},
		{name: "plain", err: errors.New("boom"), wantOK: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			field, ok := pgClassifyUniqueViolation(tc.err)
			if ok != tc.wantOK || field != tc.wantField {
				t.Fatalf("got (%q,%v), want (%q,%v)", field, ok, tc.wantField, tc.wantOK)
			}
		})
	}
}

func TestClassifyUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "net op error", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: true},
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "too many connections", err: &pgconn.PgError{Code: "53300"}, want: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := pgClassify("identity.Test", tc.err)
			if got := IsUnavailable(err); got != tc.want {
				t.Fatalf("IsUnavailable(%v) = %v, want %v", err, got, tc.want)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("classified error must keep the cause")
			}
		})
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	cause := errors.New("dial failed")
	err := OpError{Op: "identity.CreateUser", Kind: ErrUnavailable, Err: cause}

	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected both kind and cause to match: %v", err)
	}
	if IsConflict(err) || IsNotFound(err) {
		t.Fatalf("unexpected kind match")
	}
}

package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 migrations, got %v", names)
	}
	for _, n := range names {
		b, err := fs.ReadFile(FS, n)
		if err != nil {
			t.Fatalf("read %s: %v", n, err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s: missing goose annotations", n)
		}
	}

	users, _ := fs.ReadFile(FS, "00001_users.sql")
	for _, c := range []string{"users_email_key", "users_username_key"} {
		if !strings.Contains(string(users), c) {
			t.Fatalf("users migration must name constraint %s", c)
		}
	}
}

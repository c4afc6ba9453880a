package main

import (
	"errors"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"no credentials", "redis://localhost:6379/0", "redis://localhost:6379/0"},
		{"user and password", "postgres://app:secret@db:5432/users", "postgres://app@db:5432/users"},
		{"password only", "redis://:secret@cache:6379", "redis://redacted@cache:6379"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := redactURL(tt.raw); got != tt.want {
				t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://app:secret@db:5432/users"
	err := errors.New("failed to connect to " + dsn + " password=hunter2")

	got := sanitizeError(err, dsn, "")
	if strings.Contains(got, "secret") || strings.Contains(got, "hunter2") {
		t.Fatalf("sanitizeError leaked a secret: %q", got)
	}
	if !strings.Contains(got, "password=redacted") {
		t.Errorf("expected password pattern to be redacted, got %q", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("sanitizeError(nil) should be empty")
	}
}

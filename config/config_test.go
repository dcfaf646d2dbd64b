package config

import (
	"errors"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	if got := cfg.String(KeyStoreDriver); got != "sqlite" {
		t.Errorf("STORE_DRIVER = %q, want %q", got, "sqlite")
	}
	if got := cfg.Int(KeyHTTPPort); got != 3000 {
		t.Errorf("HTTP_PORT = %d, want %d", got, 3000)
	}
	if got := cfg.Duration(KeyCacheTTL); got != 5*time.Minute {
		t.Errorf("CACHE_TTL = %v, want %v", got, 5*time.Minute)
	}
	if got := cfg.String(KeyTasksUserIndex); got != "userId" {
		t.Errorf("TASKS_USER_INDEX = %q, want %q", got, "userId")
	}
	if got := cfg.String(KeyAuthorizerShape); got != "jwt" {
		t.Errorf("AUTHORIZER_SHAPE = %q, want %q", got, "jwt")
	}
}

func TestNew_ReadsEnvironment(t *testing.T) {
	t.Setenv(KeyTasksTable, "tasks-test")
	t.Setenv(KeyCacheTTL, "90s")

	cfg := New()

	if got := cfg.String(KeyTasksTable); got != "tasks-test" {
		t.Errorf("TASKS_TABLE_NAME = %q, want %q", got, "tasks-test")
	}
	if got := cfg.Duration(KeyCacheTTL); got != 90*time.Second {
		t.Errorf("CACHE_TTL = %v, want %v", got, 90*time.Second)
	}
}

func TestRequire(t *testing.T) {
	t.Setenv(KeyUsersTable, "users")
	t.Setenv(KeyClientID, "   ")

	cfg := New()

	val, err := cfg.Require(KeyUsersTable)
	if err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	if val != "users" {
		t.Errorf("Require() = %q, want %q", val, "users")
	}

	_, err = cfg.Require(KeyClientID)
	if err == nil {
		t.Fatal("Require() should fail for blank value")
	}
	if !errors.Is(err, ErrMissing) {
		t.Errorf("expected ErrMissing, got %v", err)
	}

	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cfgErr.Key != KeyClientID {
		t.Errorf("Key = %q, want %q", cfgErr.Key, KeyClientID)
	}
}

func TestRequireAll(t *testing.T) {
	cfg := New()
	cfg.Set(KeyUserPoolID, "pool")

	err := cfg.RequireAll("Failed to connect to AWS User Pool", KeyUserPoolID, KeyClientID)
	if err == nil {
		t.Fatal("RequireAll() should fail when CLIENT_ID is missing")
	}
	if err.Error() != "Failed to connect to AWS User Pool" {
		t.Errorf("Error() = %q", err.Error())
	}

	cfg.Set(KeyClientID, "client")
	if err := cfg.RequireAll("", KeyUserPoolID, KeyClientID); err != nil {
		t.Errorf("RequireAll() error = %v", err)
	}
}

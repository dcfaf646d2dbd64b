package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/example/serverless-task-api/config"
	"github.com/example/serverless-task-api/domain/task"
)

func TestLazy_RetriesAfterFailedOpen(t *testing.T) {
	calls := 0
	openErr := errors.New("boom")

	lazy := NewLazy(func(ctx context.Context) (Backend, error) {
		calls++
		if calls == 1 {
			return nil, openErr
		}
		return OpenSQLite(":memory:", testTables)
	})
	defer lazy.Close()

	ctx := context.Background()
	if _, err := lazy.QueryTasksByOwner(ctx, "u-1"); !errors.Is(err, openErr) {
		t.Fatalf("first call: expected open error, got %v", err)
	}
	if lazy.Opened() {
		t.Error("Opened() = true after failed open")
	}

	if err := lazy.PutTask(ctx, newTask("t-1", "u-1", "a", baseTime)); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}
	if _, err := lazy.GetTask(ctx, "t-1", "u-1"); err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if _, err := lazy.GetTask(ctx, "t-1", "u-2"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}

	if calls != 2 {
		t.Errorf("open called %d times, want 2", calls)
	}
	if got := lazy.Driver(); got != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", got, DriverSQLite)
	}
}

func TestLazy_CloseBeforeOpen(t *testing.T) {
	lazy := NewLazy(func(ctx context.Context) (Backend, error) {
		t.Fatal("open should not be called")
		return nil, nil
	})

	if err := lazy.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if got := lazy.Driver(); got != "" {
		t.Errorf("Driver() = %q, want empty", got)
	}
}

func TestOpen_MissingTableIsConfigurationError(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyTasksTable, "")
	cfg.Set(config.KeyUsersTable, "users")

	_, err := Open(context.Background(), cfg)
	if !errors.Is(err, config.ErrMissing) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) && cfgErr.Key != config.KeyTasksTable {
		t.Errorf("Key = %q, want %q", cfgErr.Key, config.KeyTasksTable)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyTasksTable, "tasks")
	cfg.Set(config.KeyUsersTable, "users")
	cfg.Set(config.KeyStoreDriver, DriverSQLite)
	cfg.Set(config.KeySQLitePath, ":memory:")
	cfg.Set(config.KeyRedisAddr, "")

	b, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close()

	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if b.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", b.Driver(), DriverSQLite)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyTasksTable, "tasks")
	cfg.Set(config.KeyUsersTable, "users")
	cfg.Set(config.KeyStoreDriver, "mongo")

	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("Open() should fail for unknown driver")
	}
}

func TestOpen_PostgresRequiresDatabaseURL(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyTasksTable, "tasks")
	cfg.Set(config.KeyUsersTable, "users")
	cfg.Set(config.KeyStoreDriver, DriverPostgres)
	cfg.Set(config.KeyDatabaseURL, "")

	if _, err := Open(context.Background(), cfg); !errors.Is(err, config.ErrMissing) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

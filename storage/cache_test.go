package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/serverless-task-api/domain/task"
	"github.com/redis/go-redis/v9"
)

// Requires Redis running on localhost:6379.
const testRedisAddr = "localhost:6379"

// setupTestCache wraps an in-memory SQLite store with a Redis cache.
func setupTestCache(t *testing.T) (*CachedBackend, *redis.Client) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	prefix := "test-tasks:" + t.Name() + ":"
	cleanup := func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
	cleanup()

	backend, err := OpenSQLite(":memory:", testTables)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	c := NewCachedBackend(backend, client, prefix, time.Minute)
	t.Cleanup(func() {
		cleanup()
		c.Close()
	})
	return c, client
}

func TestCachedBackend_ListPopulatesAndInvalidates(t *testing.T) {
	c, client := setupTestCache(t)
	ctx := context.Background()

	if err := c.PutTask(ctx, newTask("t-1", "u-1", "a", baseTime)); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}

	tasks, err := c.QueryTasksByOwner(ctx, "u-1")
	if err != nil {
		t.Fatalf("QueryTasksByOwner() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}

	if n, _ := client.Exists(ctx, c.ownerKey("u-1")).Result(); n != 1 {
		t.Fatal("listing was not cached")
	}

	if err := c.PutTask(ctx, newTask("t-2", "u-1", "b", baseTime.Add(time.Second))); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}
	if n, _ := client.Exists(ctx, c.ownerKey("u-1")).Result(); n != 0 {
		t.Error("listing was not invalidated by PutTask")
	}

	tasks, err = c.QueryTasksByOwner(ctx, "u-1")
	if err != nil {
		t.Fatalf("QueryTasksByOwner() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2", len(tasks))
	}
}

func TestCachedBackend_DeleteInvalidatesTask(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	if err := c.PutTask(ctx, newTask("t-1", "u-1", "a", baseTime)); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}
	if _, err := c.GetTask(ctx, "t-1", "u-1"); err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}

	if err := c.DeleteTask(ctx, "t-1", "u-1"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := c.GetTask(ctx, "t-1", "u-1"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("GetTask() after delete: expected ErrTaskNotFound, got %v", err)
	}
}

func TestCachedBackend_UpdateRefreshesTask(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	if err := c.PutTask(ctx, newTask("t-1", "u-1", "a", baseTime)); err != nil {
		t.Fatalf("PutTask() error = %v", err)
	}
	if _, err := c.GetTask(ctx, "t-1", "u-1"); err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}

	if _, err := c.UpdateTask(ctx, "t-1", "u-1", task.NewPatch("", "", "completed"), baseTime.Add(time.Minute)); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	got, err := c.GetTask(ctx, "t-1", "u-1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != task.StatusCompleted {
		t.Errorf("Status = %q, want %q (stale cache)", got.Status, task.StatusCompleted)
	}
	if c.Driver() != "sqlite+redis" {
		t.Errorf("Driver() = %q", c.Driver())
	}
}

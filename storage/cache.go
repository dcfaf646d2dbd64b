package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/serverless-task-api/domain/task"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedBackend is a cache-aside decorator over another Backend.
// Owner listings and single tasks are cached in Redis; every task write
// invalidates the affected keys after the underlying write succeeds.
// Cache failures are logged and fall through to the backend.
type CachedBackend struct {
	Backend
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	sfGroup singleflight.Group
}

var _ Backend = (*CachedBackend)(nil)

// NewCachedBackend wraps backend with a Redis cache.
func NewCachedBackend(backend Backend, client *redis.Client, prefix string, ttl time.Duration) *CachedBackend {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBackend{
		Backend: backend,
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
	}
}

func (c *CachedBackend) ownerKey(userID string) string {
	return c.prefix + "owner:" + userID
}

func (c *CachedBackend) taskKey(taskID, userID string) string {
	return c.prefix + "task:" + userID + ":" + taskID
}

func (c *CachedBackend) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[storage] Cache get error for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[storage] Cache unmarshal error for %s: %v", key, err)
		return false
	}
	return true
}

func (c *CachedBackend) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[storage] Cache marshal error for %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[storage] Cache set error for %s: %v", key, err)
	}
}

func (c *CachedBackend) invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[storage] Cache invalidation error: %v", err)
	}
}

// PutTask writes through and drops the owner's cached listing.
func (c *CachedBackend) PutTask(ctx context.Context, t *task.Task) error {
	if err := c.Backend.PutTask(ctx, t); err != nil {
		return err
	}
	c.invalidate(ctx, c.ownerKey(t.UserID))
	return nil
}

// QueryTasksByOwner serves the owner's listing from cache when present.
func (c *CachedBackend) QueryTasksByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	key := c.ownerKey(userID)

	var cached []task.Task
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	val, err, _ := c.sfGroup.Do(key, func() (any, error) {
		return c.Backend.QueryTasksByOwner(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	tasks := val.([]task.Task)
	c.set(ctx, key, tasks)
	return tasks, nil
}

// GetTask serves a single task from cache when present.
func (c *CachedBackend) GetTask(ctx context.Context, taskID, userID string) (*task.Task, error) {
	key := c.taskKey(taskID, userID)

	var cached task.Task
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	val, err, _ := c.sfGroup.Do(key, func() (any, error) {
		return c.Backend.GetTask(ctx, taskID, userID)
	})
	if err != nil {
		return nil, err
	}

	t := val.(*task.Task)
	c.set(ctx, key, t)
	return t, nil
}

// UpdateTask writes through and drops the task and the owner's listing.
func (c *CachedBackend) UpdateTask(ctx context.Context, taskID, userID string, patch task.Patch, updatedAt time.Time) (*task.Task, error) {
	t, err := c.Backend.UpdateTask(ctx, taskID, userID, patch, updatedAt)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, c.taskKey(taskID, userID), c.ownerKey(userID))
	return t, nil
}

// DeleteTask writes through and drops the task and the owner's listing.
func (c *CachedBackend) DeleteTask(ctx context.Context, taskID, userID string) error {
	if err := c.Backend.DeleteTask(ctx, taskID, userID); err != nil {
		return err
	}
	c.invalidate(ctx, c.taskKey(taskID, userID), c.ownerKey(userID))
	return nil
}

// Ping checks both the backend and Redis.
func (c *CachedBackend) Ping(ctx context.Context) error {
	if err := c.Backend.Ping(ctx); err != nil {
		return err
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes Redis and the backend.
func (c *CachedBackend) Close() error {
	cerr := c.client.Close()
	if err := c.Backend.Close(); err != nil {
		return err
	}
	return cerr
}

// Driver reports the backend driver with a cache suffix.
func (c *CachedBackend) Driver() string {
	return c.Backend.Driver() + "+redis"
}

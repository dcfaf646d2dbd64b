// Package storage persists tasks and user profiles.
//
// Every backend scopes task reads and writes to the (taskId, userId) pair, so a
// caller can never observe or mutate another owner's record. Mutations are
// conditional: updating or deleting a missing record returns
// task.ErrTaskNotFound and never creates anything.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/serverless-task-api/config"
	"github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/domain/user"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrUserNotFound is returned when a user profile does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrConflict is returned when a record with the same key already exists.
	ErrConflict = errors.New("record already exists")
)

// Drivers understood by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// TaskStore is user-scoped CRUD over task records.
type TaskStore interface {
	PutTask(ctx context.Context, t *task.Task) error
	QueryTasksByOwner(ctx context.Context, userID string) ([]task.Task, error)
	GetTask(ctx context.Context, taskID, userID string) (*task.Task, error)
	UpdateTask(ctx context.Context, taskID, userID string, patch task.Patch, updatedAt time.Time) (*task.Task, error)
	DeleteTask(ctx context.Context, taskID, userID string) error
}

// UserStore persists user profiles.
type UserStore interface {
	PutUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, userID string) (*user.User, error)
}

// Backend is a complete storage implementation.
type Backend interface {
	TaskStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// Tables names the physical tables a backend reads and writes.
type Tables struct {
	Tasks string
	Users string
}

// Open builds the backend selected by STORE_DRIVER. Table names are required
// here, at first use, rather than at startup.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	tasksTable, err := cfg.Require(config.KeyTasksTable)
	if err != nil {
		return nil, err
	}
	usersTable, err := cfg.Require(config.KeyUsersTable)
	if err != nil {
		return nil, err
	}
	tables := Tables{Tasks: tasksTable, Users: usersTable}

	var backend Backend
	switch driver := cfg.String(config.KeyStoreDriver); driver {
	case DriverSQLite:
		backend, err = OpenSQLite(cfg.String(config.KeySQLitePath), tables)
	case DriverPostgres:
		url, rerr := cfg.Require(config.KeyDatabaseURL)
		if rerr != nil {
			return nil, rerr
		}
		backend, err = OpenPostgres(ctx, url, tables)
	case DriverDynamoDB:
		region, rerr := cfg.Require(config.KeyRegion)
		if rerr != nil {
			return nil, rerr
		}
		backend, err = OpenDynamoDB(ctx, DynamoOptions{
			Region:    region,
			Endpoint:  cfg.String(config.KeyDynamoEndpoint),
			Tables:    tables,
			UserIndex: cfg.String(config.KeyTasksUserIndex),
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	addr := cfg.String(config.KeyRedisAddr)
	if addr == "" {
		log.Printf("[storage] Opened %s backend (tasks=%s, users=%s)", backend.Driver(), tables.Tasks, tables.Users)
		return backend, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		backend.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	cached := NewCachedBackend(backend, client, cfg.String(config.KeyCachePrefix), cfg.Duration(config.KeyCacheTTL))
	log.Printf("[storage] Opened %s backend (tasks=%s, users=%s, cache=%s)", cached.Driver(), tables.Tasks, tables.Users, addr)
	return cached, nil
}

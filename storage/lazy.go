package storage

import (
	"context"
	"sync"
	"time"

	"github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/domain/user"
)

// OpenFunc constructs a backend.
type OpenFunc func(ctx context.Context) (Backend, error)

// Lazy is a process-wide backend handle opened on first use.
// A failed open is not cached; the next call tries again.
type Lazy struct {
	mu      sync.Mutex
	open    OpenFunc
	backend Backend
}

var _ Backend = (*Lazy)(nil)

// NewLazy creates a handle that calls open the first time it is needed.
func NewLazy(open OpenFunc) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (Backend, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend != nil {
		return l.backend, nil
	}
	b, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	l.backend = b
	return b, nil
}

// Opened reports whether the backend has been constructed.
func (l *Lazy) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend != nil
}

func (l *Lazy) PutTask(ctx context.Context, t *task.Task) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.PutTask(ctx, t)
}

func (l *Lazy) QueryTasksByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.QueryTasksByOwner(ctx, userID)
}

func (l *Lazy) GetTask(ctx context.Context, taskID, userID string) (*task.Task, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.GetTask(ctx, taskID, userID)
}

func (l *Lazy) UpdateTask(ctx context.Context, taskID, userID string, patch task.Patch, updatedAt time.Time) (*task.Task, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.UpdateTask(ctx, taskID, userID, patch, updatedAt)
}

func (l *Lazy) DeleteTask(ctx context.Context, taskID, userID string) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.DeleteTask(ctx, taskID, userID)
}

func (l *Lazy) PutUser(ctx context.Context, u *user.User) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.PutUser(ctx, u)
}

func (l *Lazy) GetUser(ctx context.Context, userID string) (*user.User, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.GetUser(ctx, userID)
}

// Ping checks the backend, opening it if needed.
func (l *Lazy) Ping(ctx context.Context) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.Ping(ctx)
}

// Close releases the backend if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend == nil {
		return nil
	}
	err := l.backend.Close()
	l.backend = nil
	return err
}

// Driver returns the driver name, or "" before the backend is opened.
func (l *Lazy) Driver() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend == nil {
		return ""
	}
	return l.backend.Driver()
}

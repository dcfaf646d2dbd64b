package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore persists tasks and users with GORM over SQLite.
type SQLiteStore struct {
	db     *gorm.DB
	tables Tables
	path   string
}

var _ Backend = (*SQLiteStore)(nil)

// OpenSQLite opens the database at path and migrates both tables.
func OpenSQLite(path string, tables Tables) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return NewSQLiteStore(db, path, tables)
}

// NewSQLiteStore wraps an open connection and migrates both tables.
func NewSQLiteStore(db *gorm.DB, path string, tables Tables) (*SQLiteStore, error) {
	if err := db.Table(tables.Tasks).AutoMigrate(&task.Task{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", tables.Tasks, err)
	}
	if err := db.Table(tables.Users).AutoMigrate(&user.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", tables.Users, err)
	}
	return &SQLiteStore{db: db, tables: tables, path: path}, nil
}

func (s *SQLiteStore) tasks(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.tables.Tasks)
}

func (s *SQLiteStore) users(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.tables.Users)
}

// PutTask inserts a new task.
func (s *SQLiteStore) PutTask(ctx context.Context, t *task.Task) error {
	if err := s.tasks(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// QueryTasksByOwner returns the owner's tasks in creation order.
func (s *SQLiteStore) QueryTasksByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	if err := s.tasks(ctx).Where("user_id = ?", userID).Order("created_at, task_id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns the task only if it belongs to userID.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID, userID string) (*task.Task, error) {
	return s.getTask(s.tasks(ctx), taskID, userID)
}

func (s *SQLiteStore) getTask(tx *gorm.DB, taskID, userID string) (*task.Task, error) {
	var t task.Task
	result := tx.Where("task_id = ? AND user_id = ?", taskID, userID).Take(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &t, nil
}

// UpdateTask applies patch to an existing task and returns the stored result.
func (s *SQLiteStore) UpdateTask(ctx context.Context, taskID, userID string, patch task.Patch, updatedAt time.Time) (*task.Task, error) {
	updates := map[string]any{"updated_at": updatedAt}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	var updated *task.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Table(s.tables.Tasks).
			Where("task_id = ? AND user_id = ?", taskID, userID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return task.ErrTaskNotFound
		}

		t, err := s.getTask(tx.Table(s.tables.Tasks), taskID, userID)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask permanently removes the task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID, userID string) error {
	result := s.tasks(ctx).Where("task_id = ? AND user_id = ?", taskID, userID).Delete(&task.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// PutUser writes a user profile, replacing any previous copy.
func (s *SQLiteStore) PutUser(ctx context.Context, u *user.User) error {
	return s.users(ctx).Save(u).Error
}

// GetUser returns a user profile.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*user.User, error) {
	var u user.User
	result := s.users(ctx).Where("user_id = ?", userID).Take(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &u, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Driver returns "sqlite".
func (s *SQLiteStore) Driver() string {
	return DriverSQLite
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

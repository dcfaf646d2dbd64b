package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = "task_id, user_id, title, description, status, created_at, updated_at"

// PostgresStore persists tasks and users in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	tables Tables
	tasks  string
	users  string
}

var _ Backend = (*PostgresStore)(nil)

// OpenPostgres connects to url and ensures both tables exist.
func OpenPostgres(ctx context.Context, url string, tables Tables) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPostgresStore(pool, tables)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, tables Tables) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		tables: tables,
		tasks:  pgx.Identifier{tables.Tasks}.Sanitize(),
		users:  pgx.Identifier{tables.Users}.Sanitize(),
	}
}

// EnsureSchema creates the tables and the owner index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	index := pgx.Identifier{s.tables.Tasks + "_user_id_idx"}.Sanitize()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.tasks + ` (
			task_id     TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (task_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS ` + index + ` ON ` + s.tasks + ` (user_id)`,
		`CREATE TABLE IF NOT EXISTS ` + s.users + ` (
			user_id    TEXT PRIMARY KEY,
			username   TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// PutTask inserts a new task.
func (s *PostgresStore) PutTask(ctx context.Context, t *task.Task) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.tasks+` (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.TaskID, t.UserID, t.Title, t.Description, string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// QueryTasksByOwner returns the owner's tasks in creation order.
func (s *PostgresStore) QueryTasksByOwner(ctx context.Context, userID string) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM `+s.tasks+` WHERE user_id = $1 ORDER BY created_at, task_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (task.Task, error) {
		t, err := scanTask(row)
		if err != nil {
			return task.Task{}, err
		}
		return *t, nil
	})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = make([]task.Task, 0)
	}
	return tasks, nil
}

// GetTask returns the task only if it belongs to userID.
func (s *PostgresStore) GetTask(ctx context.Context, taskID, userID string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM `+s.tasks+` WHERE task_id = $1 AND user_id = $2`,
		taskID, userID,
	)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// UpdateTask applies patch in a single conditional statement and returns the new row.
func (s *PostgresStore) UpdateTask(ctx context.Context, taskID, userID string, patch task.Patch, updatedAt time.Time) (*task.Task, error) {
	var status *string
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.tasks+` SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			status = COALESCE($5, status),
			updated_at = $6
		WHERE task_id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		taskID, userID, patch.Title, patch.Description, status, updatedAt,
	)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// DeleteTask permanently removes the task.
func (s *PostgresStore) DeleteTask(ctx context.Context, taskID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.tasks+` WHERE task_id = $1 AND user_id = $2`,
		taskID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// PutUser writes a user profile, replacing any previous copy.
func (s *PostgresStore) PutUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.users+` (user_id, username, email, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email, created_at = EXCLUDED.created_at`,
		u.UserID, u.Username, u.Email, u.CreatedAt,
	)
	return err
}

// GetUser returns a user profile.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*user.User, error) {
	var u user.User
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, username, email, created_at FROM `+s.users+` WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Driver returns "postgres".
func (s *PostgresStore) Driver() string {
	return DriverPostgres
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	var status string
	if err := row.Scan(&t.TaskID, &t.UserID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = task.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// isPgDuplicateKeyError checks if error is a PostgreSQL unique violation.
func isPgDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

package task

import (
	"context"
	"fmt"
	"log"
	"time"

	domain "github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/storage"
	"github.com/google/uuid"
)

// Service implements task operations on top of a TaskStore.
type Service struct {
	store storage.TaskStore
	now   func() time.Time
	newID func() string
}

var _ TaskPort = (*Service)(nil)

// NewService creates a new Service.
func NewService(store storage.TaskStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// CreateTask validates and stores a new task. Nothing is written when validation fails.
func (s *Service) CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	if req.Title == "" {
		return nil, domain.ErrTitleRequired
	}

	status := domain.StatusPending
	if req.Status != "" {
		status = domain.Status(req.Status)
		if !status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}

	now := domain.Timestamp(s.now())
	t := &domain.Task{
		TaskID:      s.newID(),
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.PutTask(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	log.Printf("[task] Created task %s for user %s", t.TaskID, t.UserID)
	return t, nil
}

// ListTasks returns every task owned by userID.
func (s *Service) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := s.store.QueryTasksByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns the task only if userID owns it.
func (s *Service) GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	return s.store.GetTask(ctx, taskID, userID)
}

// UpdateTask applies the non-empty fields of req and refreshes updatedAt.
func (s *Service) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error) {
	patch := domain.NewPatch(req.Title, req.Description, req.Status)
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.UpdateTask(ctx, req.TaskID, req.UserID, patch, domain.Timestamp(s.now()))
	if err != nil {
		return nil, err
	}

	log.Printf("[task] Updated task %s fields %s", t.TaskID, patch)
	return t, nil
}

// DeleteTask permanently removes the task if userID owns it.
func (s *Service) DeleteTask(ctx context.Context, taskID, userID string) error {
	if err := s.store.DeleteTask(ctx, taskID, userID); err != nil {
		return err
	}
	log.Printf("[task] Deleted task %s", taskID)
	return nil
}

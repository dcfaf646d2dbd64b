package task

import (
	"context"

	domain "github.com/example/serverless-task-api/domain/task"
)

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// CreateTaskResponse is the response for creating a task.
type CreateTaskResponse struct {
	Task domain.Task `json:"task"`
}

// ListTasksRequest is the request for listing an owner's tasks.
type ListTasksRequest struct {
	UserID string `json:"userId"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId"`
}

// UpdateTaskRequest is the request for a partial update. Empty fields are not changed.
type UpdateTaskRequest struct {
	TaskID      string `json:"taskId"`
	UserID      string `json:"userId"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TaskResponse is the response for get-task and update-task.
// Found is false when no task matches the id and owner.
type TaskResponse struct {
	Found bool         `json:"found"`
	Task  *domain.Task `json:"task,omitempty"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// TaskPort is the contract other modules use to reach task operations.
// Every operation is scoped to the owner in the request.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error)
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID, userID string) error
}

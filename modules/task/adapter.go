package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/serverless-task-api/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort over the task module's service container.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// serviceError restores validation sentinels, which cross the service boundary as text.
func serviceError(service string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, domain.ErrTitleRequired.Error()):
		return domain.ErrTitleRequired
	case strings.Contains(msg, domain.ErrInvalidStatus.Error()):
		return domain.ErrInvalidStatus
	case strings.Contains(msg, domain.ErrTaskNotFound.Error()):
		return domain.ErrTaskNotFound
	}
	return fmt.Errorf("%s service call failed: %w", service, err)
}

// CreateTask creates a task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	var resp CreateTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, serviceError("create-task", err)
	}
	return &resp.Task, nil
}

// ListTasks lists the owner's tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	req := ListTasksRequest{UserID: userID}
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, serviceError("list-tasks", err)
	}
	if resp.Tasks == nil {
		resp.Tasks = make([]domain.Task, 0)
	}
	return resp.Tasks, nil
}

// GetTask retrieves a task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: taskID, UserID: userID}
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, serviceError("get-task", err)
	}
	if !resp.Found || resp.Task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return resp.Task, nil
}

// UpdateTask updates a task via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error) {
	var resp TaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"update-task",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, serviceError("update-task", err)
	}
	if !resp.Found || resp.Task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return resp.Task, nil
}

// DeleteTask deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, taskID, userID string) error {
	req := DeleteTaskRequest{TaskID: taskID, UserID: userID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"delete-task",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return serviceError("delete-task", err)
	}
	if !resp.Deleted {
		return domain.ErrTaskNotFound
	}
	return nil
}

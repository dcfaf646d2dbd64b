package task

import (
	"context"
	"errors"

	domain "github.com/example/serverless-task-api/domain/task"
	"github.com/go-monolith/mono"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (CreateTaskResponse, error) {
	t, err := m.service.CreateTask(ctx, &req)
	if err != nil {
		return CreateTaskResponse{}, err
	}
	return CreateTaskResponse{Task: *t}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListTasks(ctx, req.UserID)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.GetTask(ctx, req.TaskID, req.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return TaskResponse{Found: false}, nil
		}
		return TaskResponse{}, err
	}
	return TaskResponse{Found: true, Task: t}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.UpdateTask(ctx, &req)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return TaskResponse{Found: false}, nil
		}
		return TaskResponse{}, err
	}
	return TaskResponse{Found: true, Task: t}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.DeleteTask(ctx, req.TaskID, req.UserID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return DeleteTaskResponse{Deleted: false}, nil
		}
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

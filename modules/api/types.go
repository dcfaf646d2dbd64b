package api

import (
	domain "github.com/example/serverless-task-api/domain/task"
)

// MessageResponse is the body of every error and of plain acknowledgements.
// Error carries the underlying failure text where the caller is shown one.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// DataResponse wraps a provider result for register and login.
type DataResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// TaskBody is the JSON body accepted by create and update.
type TaskBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// RegisterBody is the JSON body accepted by POST /register.
type RegisterBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginBody is the JSON body accepted by POST /login.
type LoginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TasksResponse is the body of GET /tasks.
type TasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// TaskResponse is the body of POST /tasks and PUT /tasks/:taskId.
type TaskResponse struct {
	Task *domain.Task `json:"task"`
}

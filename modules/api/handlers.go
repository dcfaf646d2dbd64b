package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"

	domain "github.com/example/serverless-task-api/domain/task"
	"github.com/example/serverless-task-api/modules/identity"
	"github.com/example/serverless-task-api/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Response messages.
const (
	msgMissingToken    = "Missing token"
	msgUnauthorized    = "Unauthorized"
	msgInvalidBody     = "Invalid request body."
	msgTitleRequired   = "Title is required."
	msgInvalidStatus   = "Status must be one of: pending, in-progress, completed."
	msgTaskIDRequired  = "Task ID is required."
	msgTaskNotFound    = "Task not found."
	msgTaskDeleted     = "Task deleted successfully."
	msgInternalError   = "Internal Server Error"
	msgSignupSucceeded = "Signup successful"
	msgLoginSucceeded  = "Login successful"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	tasks    task.TaskPort
	identity identity.IdentityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tasks task.TaskPort, identityPort identity.IdentityPort) *Handlers {
	return &Handlers{
		tasks:    tasks,
		identity: identityPort,
	}
}

// Register handles POST /register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body RegisterBody
	if err := parseBody(c, &body); err != nil {
		return err
	}

	log.Printf("[api] Register request for %q", body.Username)

	result, err := h.identity.Register(c.UserContext(), &identity.RegisterRequest{
		Username: body.Username,
		Password: body.Password,
		Email:    body.Email,
	})
	if err != nil {
		return authFailure(c, err)
	}

	return c.JSON(DataResponse{Message: msgSignupSucceeded, Data: result})
}

// Login handles POST /login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginBody
	if err := parseBody(c, &body); err != nil {
		return err
	}

	log.Printf("[api] Login request for %q", body.Username)

	result, err := h.identity.Login(c.UserContext(), &identity.LoginRequest{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		return authFailure(c, err)
	}

	return c.JSON(DataResponse{Message: msgLoginSucceeded, Data: result})
}

// ListTasks handles GET /tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), userID)
	if err != nil {
		return taskFailure(c, "Get Tasks", err)
	}

	return c.JSON(TasksResponse{Tasks: tasks})
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	var body TaskBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if body.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, msgTitleRequired)
	}
	if err := validateStatus(body.Status); err != nil {
		return err
	}

	t, err := h.tasks.CreateTask(c.UserContext(), &task.CreateTaskRequest{
		UserID:      userID,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		return taskFailure(c, "Create Task", err)
	}

	return c.Status(fiber.StatusCreated).JSON(TaskResponse{Task: t})
}

// UpdateTask handles PUT /tasks/:taskId. Only non-empty fields change.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	taskID := c.Params("taskId")
	if taskID == "" {
		return fiber.NewError(fiber.StatusBadRequest, msgTaskIDRequired)
	}

	if _, err := h.tasks.GetTask(c.UserContext(), taskID, userID); err != nil {
		return taskFailure(c, "Update Task", err)
	}

	var body TaskBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if err := validateStatus(body.Status); err != nil {
		return err
	}

	t, err := h.tasks.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		TaskID:      taskID,
		UserID:      userID,
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		return taskFailure(c, "Update Task", err)
	}

	return c.JSON(TaskResponse{Task: t})
}

// DeleteTask handles DELETE /tasks/:taskId.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	taskID := c.Params("taskId")
	if taskID == "" {
		return fiber.NewError(fiber.StatusBadRequest, msgTaskIDRequired)
	}

	if _, err := h.tasks.GetTask(c.UserContext(), taskID, userID); err != nil {
		return taskFailure(c, "Delete Task", err)
	}

	if err := h.tasks.DeleteTask(c.UserContext(), taskID, userID); err != nil {
		return taskFailure(c, "Delete Task", err)
	}

	return c.JSON(MessageResponse{Message: msgTaskDeleted})
}

// caller returns the subject of the authenticated caller, or the 401 to send.
func caller(c *fiber.Ctx) (string, error) {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, msgMissingToken)
	}

	authorizer, _ := c.Locals(AuthorizerKey).(map[string]any)
	sub, ok := Subject(authorizer)
	if !ok {
		return "", fiber.NewError(fiber.StatusUnauthorized, msgUnauthorized)
	}
	return sub, nil
}

// parseBody decodes a JSON body into v. An empty body decodes as {}.
func parseBody(c *fiber.Ctx, v any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}
	return nil
}

func validateStatus(status string) error {
	if status != "" && !domain.Status(status).Valid() {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidStatus)
	}
	return nil
}

// taskFailure maps a task operation error to its response.
func taskFailure(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return fiber.NewError(fiber.StatusNotFound, msgTaskNotFound)
	case errors.Is(err, domain.ErrTitleRequired):
		return fiber.NewError(fiber.StatusBadRequest, msgTitleRequired)
	case errors.Is(err, domain.ErrInvalidStatus):
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidStatus)
	}

	log.Printf("[api] %s Error: %v", op, err)
	return c.Status(fiber.StatusInternalServerError).JSON(MessageResponse{
		Message: msgInternalError,
		Error:   err.Error(),
	})
}

// authFailure answers a register or login failure with its caller-facing message.
func authFailure(c *fiber.Ctx, err error) error {
	log.Printf("[api] Auth Error: %v", err)
	msg := err.Error()
	return c.Status(fiber.StatusBadRequest).JSON(MessageResponse{
		Message: msg,
		Error:   msg,
	})
}

package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/serverless-task-api/storage"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskModule provides user-scoped task services.
type TaskModule struct {
	store   storage.Backend
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule over the shared store handle.
func NewModule(store storage.Backend) *TaskModule {
	return &TaskModule{
		store:   store,
		service: NewService(store),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Start starts the module. The store is opened on first use.
func (m *TaskModule) Start(_ context.Context) error {
	log.Println("[task] Module started")
	return nil
}

// Stop closes the store.
func (m *TaskModule) Stop(_ context.Context) error {
	if err := m.store.Close(); err != nil {
		log.Printf("[task] Failed to close store: %v", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if lazy, ok := m.store.(*storage.Lazy); ok && !lazy.Opened() {
		return mono.HealthStatus{
			Healthy: true,
			Message: "store not opened yet",
		}
	}

	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.store.Driver(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"create-task",
		json.Unmarshal,
		json.Marshal,
		m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"list-tasks",
		json.Unmarshal,
		json.Marshal,
		m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-task",
		json.Unmarshal,
		json.Marshal,
		m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"update-task",
		json.Unmarshal,
		json.Marshal,
		m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"delete-task",
		json.Unmarshal,
		json.Marshal,
		m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, list-tasks, get-task, update-task, delete-task")
	return nil
}

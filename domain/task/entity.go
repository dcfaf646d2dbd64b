package task

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrTaskNotFound is returned when no task matches both the task id and the owner.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTitleRequired is returned when a task is created without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("status must be one of: pending, in-progress, completed")
)

// Status represents the state of a task. Any transition between states is allowed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
// TaskID and UserID together form the primary key; neither changes after creation.
type Task struct {
	TaskID      string    `json:"taskId" gorm:"primaryKey;column:task_id;type:text" dynamodbav:"taskId"`
	UserID      string    `json:"userId" gorm:"primaryKey;column:user_id;type:text;index:idx_tasks_user_id" dynamodbav:"userId"`
	Title       string    `json:"title" gorm:"column:title;type:text;not null" dynamodbav:"title"`
	Description string    `json:"description" gorm:"column:description;type:text;not null;default:''" dynamodbav:"description"`
	Status      Status    `json:"status" gorm:"column:status;type:text;not null" dynamodbav:"status"`
	CreatedAt   time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime:false" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime:false" dynamodbav:"updatedAt"`
}

// Patch is a sparse set of field changes. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
}

// NewPatch builds a Patch from raw request values. Empty strings mean "not supplied",
// so a field can never be cleared through an update.
func NewPatch(title, description, status string) Patch {
	var p Patch
	if title != "" {
		p.Title = &title
	}
	if description != "" {
		p.Description = &description
	}
	if status != "" {
		s := Status(status)
		p.Status = &s
	}
	return p
}

// Validate checks the supplied fields.
func (p Patch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Fields returns the names of the supplied fields in a stable order.
func (p Patch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	return fields
}

// Apply writes the supplied fields onto t and stamps UpdatedAt.
func (p Patch) Apply(t *Task, updatedAt time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	t.UpdatedAt = updatedAt
}

// String describes the patch for logs.
func (p Patch) String() string {
	fields := p.Fields()
	if len(fields) == 0 {
		return "{}"
	}
	return "{" + strings.Join(fields, ",") + "}"
}

// Timestamp normalizes t to the precision persisted by every backend.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

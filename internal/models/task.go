// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// TaskStatuses lists every status in board order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the full form of a task, as returned by GET /tasks/{id}.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CreatorID   int64        `json:"creator_id"`
	AssigneeID  *int64       `json:"assignee_id"`
	Creator     User         `json:"creator"`
	Assignee    *User        `json:"assignee"`
	Attachments []Attachment `json:"attachments"`
}

// TaskListItem is the reduced projection used by GET /tasks.
type TaskListItem struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Status    TaskStatus   `json:"status"`
	Priority  TaskPriority `json:"priority"`
	DueDate   *time.Time   `json:"due_date"`
	CreatedAt time.Time    `json:"created_at"`
	Assignee  *User        `json:"assignee"`
}

// ListItem projects a full task onto its list form.
func (t *Task) ListItem() TaskListItem {
	return TaskListItem{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
		Assignee:  t.Assignee,
	}
}

// CreateTaskInput is the body of POST /tasks. Unset optional fields are
// left out of the JSON so the server applies its own defaults.
type CreateTaskInput struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AssigneeID  *int64       `json:"assignee_id,omitempty"`
}

// UpdateTaskInput is the body of PATCH /tasks/{id}; nil fields are not sent.
type UpdateTaskInput struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	AssigneeID  *int64        `json:"assignee_id,omitempty"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	Status     *TaskStatus
	AssigneeID *int64
}

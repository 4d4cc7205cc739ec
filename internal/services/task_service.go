package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

// TaskService defines the task business logic. Returned tasks are fully
// assembled with creator, assignee and attachments.
type TaskService interface {
	Create(ctx context.Context, creatorID int64, in models.CreateTaskInput) (*models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.TaskListItem, error)
	Update(ctx context.Context, id int64, in models.UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
}

type taskService struct {
	repo        repositories.TaskRepository
	users       repositories.UserRepository
	attachments AttachmentService
	logger      *slog.Logger
	now         func() time.Time
}

func NewTaskService(repo repositories.TaskRepository, users repositories.UserRepository, attachments AttachmentService, logger *slog.Logger) TaskService {
	return &taskService{repo: repo, users: users, attachments: attachments, logger: logger, now: time.Now}
}

func (s *taskService) Create(ctx context.Context, creatorID int64, in models.CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, in.Priority)
	}
	if err := s.checkAssignee(ctx, in.AssigneeID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &models.Task{
		Title:      title,
		Status:     models.StatusTodo,
		Priority:   in.Priority,
		DueDate:    in.DueDate,
		CreatorID:  creatorID,
		AssigneeID: in.AssigneeID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Description != "" {
		d := in.Description
		task.Description = &d
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return s.assemble(ctx, task)
}

func (s *taskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, task)
}

func (s *taskService) List(ctx context.Context, filter models.TaskFilter) ([]models.TaskListItem, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *filter.Status)
	}
	tasks, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	users := map[int64]*models.User{}
	items := make([]models.TaskListItem, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.AssigneeID != nil {
			t.Assignee = s.lookupUser(ctx, users, *t.AssigneeID)
		}
		items = append(items, t.ListItem())
	}
	return items, nil
}

// Update applies only the fields set in in.
func (s *taskService) Update(ctx context.Context, id int64, in models.UpdateTaskInput) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
		}
		task.Title = title
	}
	if in.Description != nil {
		d := *in.Description
		task.Description = &d
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *in.Status)
		}
		task.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, *in.Priority)
		}
		task.Priority = *in.Priority
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, in.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = in.AssigneeID
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return s.assemble(ctx, task)
}

// Delete removes the task together with its attachment files.
func (s *taskService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.attachments.DeleteAll(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *taskService) checkAssignee(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: assignee %d does not exist", ErrInvalidInput, *id)
		}
		return err
	}
	return nil
}

func (s *taskService) assemble(ctx context.Context, task *models.Task) (*models.Task, error) {
	creator, err := s.users.GetByID(ctx, task.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("task %d creator: %w", task.ID, err)
	}
	task.Creator = *creator
	task.Assignee = nil
	if task.AssigneeID != nil {
		task.Assignee = s.lookupUser(ctx, nil, *task.AssigneeID)
	}
	list, err := s.attachments.List(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	task.Attachments = list
	return task, nil
}

// lookupUser resolves id through seen when given. A missing user yields nil.
func (s *taskService) lookupUser(ctx context.Context, seen map[int64]*models.User, id int64) *models.User {
	if u, ok := seen[id]; ok {
		return u
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("[task] assignee lookup", "user_id", id, "error", err)
		u = nil
	}
	if seen != nil {
		seen[id] = u
	}
	return u
}

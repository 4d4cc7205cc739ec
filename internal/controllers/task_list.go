package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"taskflow/internal/cache"
	"taskflow/internal/models"
)

const (
	EmptyMessage     = "No tasks yet. Create your first task!"
	DeleteTaskPrompt = "Are you sure you want to delete this task?"
)

// TaskList is the filtered task list screen.
type TaskList struct {
	api     TaskAPI
	cache   *cache.Cache
	confirm Confirmer
	opts    []Option
	logger  *slog.Logger

	mu     sync.Mutex
	filter models.TaskFilter
	items  []models.TaskListItem
	loaded bool
	err    error
}

func NewTaskList(api TaskAPI, c *cache.Cache, confirm Confirmer, opts ...Option) *TaskList {
	return &TaskList{
		api:     api,
		cache:   c,
		confirm: confirm,
		opts:    opts,
		logger:  buildOptions(opts).logger,
	}
}

// SetStatusFilter selects one status, or all tasks for nil.
func (l *TaskList) SetStatusFilter(s *models.TaskStatus) error {
	if s != nil && !s.Valid() {
		return fmt.Errorf("invalid status %q", *s)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == nil {
		l.filter.Status = nil
	} else {
		v := *s
		l.filter.Status = &v
	}
	l.loaded = false
	return nil
}

func (l *TaskList) SetAssigneeFilter(id *int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == nil {
		l.filter.AssigneeID = nil
	} else {
		v := *id
		l.filter.AssigneeID = &v
	}
	l.loaded = false
}

func (l *TaskList) Filter() models.TaskFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Load reads the list for the current filter through the cache.
func (l *TaskList) Load(ctx context.Context) ([]models.TaskListItem, error) {
	f := l.Filter()
	items, err := cache.Get(ctx, l.cache, cache.TaskListKey(f), func(ctx context.Context) ([]models.TaskListItem, error) {
		return l.api.ListTasks(ctx, f)
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = err
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	l.items = items
	l.loaded = true
	l.err = nil
	return items, nil
}

// Items returns the last loaded list.
func (l *TaskList) Items() []models.TaskListItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items
}

// Empty distinguishes a loaded empty list from one not loaded yet.
func (l *TaskList) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded && len(l.items) == 0
}

func (l *TaskList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Create opens a create form.
func (l *TaskList) Create() *TaskForm {
	return NewTaskForm(l.api, l.cache, l.opts...)
}

// Edit opens the form of task id in edit mode.
func (l *TaskList) Edit(ctx context.Context, id int64) (*TaskForm, error) {
	return OpenEdit(ctx, l.api, l.cache, id, l.opts...)
}

// Delete removes task id after the user confirms. It reports whether the
// task was deleted.
func (l *TaskList) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := l.confirm.Confirm(DeleteTaskPrompt)
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := l.api.DeleteTask(ctx, id); err != nil {
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	l.cache.TaskDeleted(id)
	l.logger.Info("[task][delete][ok]", "id", id)
	return true, nil
}

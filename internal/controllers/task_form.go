package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskflow/internal/cache"
	"taskflow/internal/models"
)

// DateLayout is the form representation of a due date.
const DateLayout = "2006-01-02"

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Draft is the locally edited state of a form. Nothing in it reaches the
// server before Submit.
type Draft struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	// DueDate is YYYY-MM-DD or empty.
	DueDate    string
	AssigneeID *int64
}

type TaskForm struct {
	api    TaskAPI
	cache  *cache.Cache
	opts   []Option
	logger *slog.Logger
	mode   Mode
	id     int64

	mu         sync.Mutex
	draft      Draft
	task       *models.Task
	submitting bool
	closed     bool
	err        error
}

// NewTaskForm opens an empty form in create mode.
func NewTaskForm(api TaskAPI, c *cache.Cache, opts ...Option) *TaskForm {
	return &TaskForm{
		api:    api,
		cache:  c,
		opts:   opts,
		logger: buildOptions(opts).logger,
		mode:   ModeCreate,
	}
}

// NewEditForm opens a form in edit mode for task id. It stays unloaded
// until Load succeeds.
func NewEditForm(api TaskAPI, c *cache.Cache, id int64, opts ...Option) *TaskForm {
	f := NewTaskForm(api, c, opts...)
	f.mode = ModeEdit
	f.id = id
	return f
}

// OpenEdit is NewEditForm followed by Load.
func OpenEdit(ctx context.Context, api TaskAPI, c *cache.Cache, id int64, opts ...Option) (*TaskForm, error) {
	f := NewEditForm(api, c, id, opts...)
	if err := f.Load(ctx); err != nil {
		return f, err
	}
	return f, nil
}

// Load reads the backing task through the cache and resets the draft from
// it. It is a no-op in create mode.
func (f *TaskForm) Load(ctx context.Context) error {
	if f.mode != ModeEdit {
		return nil
	}
	t, err := cache.Get(ctx, f.cache, cache.TaskKey(f.id), func(ctx context.Context) (*models.Task, error) {
		return f.api.GetTask(ctx, f.id)
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = err
		return fmt.Errorf("load task %d: %w", f.id, err)
	}
	f.task = t
	f.draft = draftFromTask(t)
	f.err = nil
	return nil
}

func draftFromTask(t *models.Task) Draft {
	d := Draft{
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
	}
	if t.Description != nil {
		d.Description = *t.Description
	}
	if t.DueDate != nil {
		d.DueDate = t.DueDate.Format(DateLayout)
	}
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		d.AssigneeID = &id
	}
	return d
}

func (f *TaskForm) Mode() Mode { return f.mode }

// ID is the id of the backing task, 0 in create mode.
func (f *TaskForm) ID() int64 { return f.id }

// Loaded reports whether the backing task is available. Create forms have
// none and are never loaded.
func (f *TaskForm) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.task != nil
}

// Task returns the backing task as last loaded, or nil.
func (f *TaskForm) Task() *models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.task
}

// Attachments lists the attachments of the loaded task.
func (f *TaskForm) Attachments() ([]models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task == nil {
		return nil, ErrNotLoaded
	}
	return append([]models.Attachment(nil), f.task.Attachments...), nil
}

func (f *TaskForm) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *TaskForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Closed reports whether the form was submitted successfully or closed.
func (f *TaskForm) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Err is the error of the last failed load or submit.
func (f *TaskForm) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close discards the form without submitting.
func (f *TaskForm) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *TaskForm) SetTitle(s string) {
	f.mu.Lock()
	f.draft.Title = s
	f.mu.Unlock()
}

func (f *TaskForm) SetDescription(s string) {
	f.mu.Lock()
	f.draft.Description = s
	f.mu.Unlock()
}

// SetStatus needs a loaded task; create forms take the server default.
func (f *TaskForm) SetStatus(s models.TaskStatus) error {
	if !s.Valid() {
		return fmt.Errorf("invalid status %q", s)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.task == nil {
		return ErrNotLoaded
	}
	f.draft.Status = s
	return nil
}

// SetPriority accepts "" to leave the priority unset.
func (f *TaskForm) SetPriority(p models.TaskPriority) error {
	if p != "" && !p.Valid() {
		return fmt.Errorf("invalid priority %q", p)
	}
	f.mu.Lock()
	f.draft.Priority = p
	f.mu.Unlock()
	return nil
}

// SetDueDate takes YYYY-MM-DD, or "" for no due date.
func (f *TaskForm) SetDueDate(s string) error {
	s = strings.TrimSpace(s)
	if s != "" {
		if _, err := time.Parse(DateLayout, s); err != nil {
			return fmt.Errorf("invalid due date %q: want YYYY-MM-DD", s)
		}
	}
	f.mu.Lock()
	f.draft.DueDate = s
	f.mu.Unlock()
	return nil
}

func (f *TaskForm) SetAssignee(id *int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == nil {
		f.draft.AssigneeID = nil
		return
	}
	v := *id
	f.draft.AssigneeID = &v
}

// Users returns the assignee choices.
func (f *TaskForm) Users(ctx context.Context) ([]models.User, error) {
	return cache.Get(ctx, f.cache, cache.UsersKey, f.api.ListUsers)
}

// Submit creates or updates the task from the draft. On success the form
// closes and the affected cache keys are invalidated; on failure it stays
// open with the error in Err.
func (f *TaskForm) Submit(ctx context.Context) (*models.Task, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrClosed
	case f.submitting:
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	case f.mode == ModeEdit && f.task == nil:
		f.mu.Unlock()
		return nil, ErrNotLoaded
	case strings.TrimSpace(f.draft.Title) == "":
		f.err = ErrTitleRequired
		f.mu.Unlock()
		return nil, ErrTitleRequired
	}
	draft := f.draft
	f.submitting = true
	f.mu.Unlock()

	var (
		task *models.Task
		err  error
	)
	if f.mode == ModeCreate {
		task, err = f.api.CreateTask(ctx, CreateInput(draft))
	} else {
		task, err = f.api.UpdateTask(ctx, f.id, UpdateInput(draft))
	}

	if err != nil {
		f.mu.Lock()
		f.submitting = false
		f.err = err
		f.mu.Unlock()
		f.logger.Warn("[task]["+f.mode.String()+"][err]", "id", f.id, "error", err)
		return nil, fmt.Errorf("%s task: %w", f.mode, err)
	}

	// Keys go stale before the form reports closed, and it stays
	// submitting until then.
	if f.mode == ModeCreate {
		f.cache.TaskCreated()
	} else {
		f.cache.TaskUpdated(f.id)
	}

	f.mu.Lock()
	f.submitting = false
	f.err = nil
	f.closed = true
	f.mu.Unlock()
	f.logger.Info("[task]["+f.mode.String()+"][ok]", "id", task.ID)
	return task, nil
}

// AttachmentManager returns the attachment manager of the loaded task.
func (f *TaskForm) AttachmentManager(api AttachmentAPI, confirm Confirmer) (*AttachmentManager, error) {
	if f.mode != ModeEdit || !f.Loaded() {
		return nil, ErrNotLoaded
	}
	return NewAttachmentManager(api, f.cache, f.id, confirm, f.opts...), nil
}

// CreateInput builds the create payload: the title plus every non-empty
// optional field.
func CreateInput(d Draft) models.CreateTaskInput {
	in := models.CreateTaskInput{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Priority:    d.Priority,
		DueDate:     dueDate(d.DueDate),
	}
	if d.AssigneeID != nil {
		id := *d.AssigneeID
		in.AssigneeID = &id
	}
	return in
}

// UpdateInput builds the edit payload: the create fields plus status.
func UpdateInput(d Draft) models.UpdateTaskInput {
	c := CreateInput(d)
	in := models.UpdateTaskInput{
		Title:      &c.Title,
		DueDate:    c.DueDate,
		AssigneeID: c.AssigneeID,
	}
	if c.Description != "" {
		in.Description = &c.Description
	}
	if c.Priority != "" {
		in.Priority = &c.Priority
	}
	if d.Status != "" {
		st := d.Status
		in.Status = &st
	}
	return in
}

// dueDate turns YYYY-MM-DD into midnight UTC of that day.
func dueDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

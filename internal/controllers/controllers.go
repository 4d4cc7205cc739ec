// Package controllers holds the state behind the task screens: the task list,
// the create/edit form and the attachment manager of an existing task. They
// read through the entity cache and mutate through the API client, then
// invalidate the cache keys the mutation made stale.
package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"taskflow/internal/models"
)

var (
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrUploadInProgress = errors.New("upload already in progress")
	// ErrNotLoaded is returned for operations that need the backing task of
	// an edit form before it has been loaded.
	ErrNotLoaded     = errors.New("task not loaded")
	ErrTitleRequired = errors.New("title is required")
	ErrClosed        = errors.New("form is closed")
)

// TaskAPI is the part of the API client used by the task screens.
type TaskAPI interface {
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.TaskListItem, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, in models.CreateTaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, in models.UpdateTaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

type AttachmentAPI interface {
	UploadAttachment(ctx context.Context, taskID int64, filename string, r io.Reader) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, taskID, attachmentID int64) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

type options struct {
	logger *slog.Logger
	policy UploadPolicy
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithUploadPolicy sets how a multi-file upload reacts to a failed file.
func WithUploadPolicy(p UploadPolicy) Option { return func(o *options) { o.policy = p } }

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), policy: StopOnError}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

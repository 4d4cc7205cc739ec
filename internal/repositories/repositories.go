package repositories

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"taskflow/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type UserRepository interface {
	// Create fails with ErrDuplicate when the email or username is taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	// FindAll returns tasks newest first.
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
}

type AttachmentRepository interface {
	Create(ctx context.Context, a *models.Attachment) error
	GetByID(ctx context.Context, taskID, id int64) (*models.Attachment, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.Attachment, error)
	Delete(ctx context.Context, taskID, id int64) error
}

// uniqueViolation maps a Postgres unique constraint error to ErrDuplicate.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

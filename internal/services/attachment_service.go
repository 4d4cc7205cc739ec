package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

// DefaultMaxUploadSize bounds a single attachment.
const DefaultMaxUploadSize = 10 << 20

// AttachmentService stores attachment files under a root directory and
// their metadata in the repository.
type AttachmentService interface {
	Upload(ctx context.Context, taskID int64, filename, contentType string, r io.Reader) (*models.Attachment, error)
	List(ctx context.Context, taskID int64) ([]models.Attachment, error)
	// Open returns the attachment and the absolute path of its file.
	Open(ctx context.Context, taskID, id int64) (*models.Attachment, string, error)
	Delete(ctx context.Context, taskID, id int64) error
	DeleteAll(ctx context.Context, taskID int64) error
}

type attachmentService struct {
	repo    repositories.AttachmentRepository
	tasks   repositories.TaskRepository
	root    string
	maxSize int64
	logger  *slog.Logger
}

func NewAttachmentService(repo repositories.AttachmentRepository, tasks repositories.TaskRepository, filesRoot string, maxSize int64, logger *slog.Logger) AttachmentService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &attachmentService{
		repo:    repo,
		tasks:   tasks,
		root:    filepath.Clean(filesRoot),
		maxSize: maxSize,
		logger:  logger,
	}
}

func (s *attachmentService) Upload(ctx context.Context, taskID int64, filename, contentType string, r io.Reader) (*models.Attachment, error) {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: missing filename", ErrInvalidInput)
	}

	rel := filepath.ToSlash(filepath.Join("tasks", strconv.FormatInt(taskID, 10), uuid.NewString()+strings.ToLower(filepath.Ext(name))))
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}

	size, err := s.writeFile(abs, r)
	if err != nil {
		return nil, err
	}

	a := &models.Attachment{
		TaskID:     taskID,
		Filename:   name,
		FilePath:   rel,
		FileSize:   size,
		UploadedAt: time.Now().UTC(),
	}
	if contentType != "" {
		a.ContentType = &contentType
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.removeFile(abs)
		return nil, err
	}
	return a, nil
}

func (s *attachmentService) writeFile(abs string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("store file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxSize {
		err = fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxSize)
	}
	if err != nil {
		s.removeFile(abs)
		if errors.Is(err, ErrInvalidInput) {
			return 0, err
		}
		return 0, fmt.Errorf("store file: %w", err)
	}
	return n, nil
}

func (s *attachmentService) List(ctx context.Context, taskID int64) ([]models.Attachment, error) {
	return s.repo.ListByTask(ctx, taskID)
}

func (s *attachmentService) Open(ctx context.Context, taskID, id int64) (*models.Attachment, string, error) {
	a, err := s.repo.GetByID(ctx, taskID, id)
	if err != nil {
		return nil, "", err
	}
	abs, err := s.resolve(a.FilePath)
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, "", repositories.ErrNotFound
	}
	return a, abs, nil
}

func (s *attachmentService) Delete(ctx context.Context, taskID, id int64) error {
	a, err := s.repo.GetByID(ctx, taskID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID, id); err != nil {
		return err
	}
	if abs, err := s.resolve(a.FilePath); err == nil {
		s.removeFile(abs)
	}
	return nil
}

func (s *attachmentService) DeleteAll(ctx context.Context, taskID int64) error {
	list, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return err
	}
	for _, a := range list {
		if err := s.Delete(ctx, taskID, a.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
	}
	return nil
}

// resolve maps a stored relative path to an absolute one inside root.
func (s *attachmentService) resolve(rel string) (string, error) {
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if r, err := filepath.Rel(s.root, abs); err != nil || strings.HasPrefix(r, "..") {
		return "", fmt.Errorf("bad filepath %q", rel)
	}
	return abs, nil
}

func (s *attachmentService) removeFile(abs string) {
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("[attachment] remove file", "path", abs, "error", err)
	}
}

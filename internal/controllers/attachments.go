package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"taskflow/internal/cache"
	"taskflow/internal/models"
)

// UploadPolicy decides what a multi-file upload does after a failed file.
// Files uploaded before the failure are kept either way.
type UploadPolicy int

const (
	// StopOnError ends the batch at the first failure; later files are
	// reported as skipped.
	StopOnError UploadPolicy = iota
	ContinueOnError
)

// UploadFile is one selected file.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// LocalFile selects a file on disk.
func LocalFile(path string) UploadFile {
	return UploadFile{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

type FailedUpload struct {
	Name string
	Err  error
}

type UploadResult struct {
	Uploaded []models.Attachment
	Failed   []FailedUpload
	Skipped  []string
}

// Err joins the errors of the failed files, or returns nil.
func (r UploadResult) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Name, f.Err))
	}
	return errors.Join(errs...)
}

// AttachmentManager uploads and deletes the attachments of one task.
type AttachmentManager struct {
	api     AttachmentAPI
	cache   *cache.Cache
	taskID  int64
	confirm Confirmer
	policy  UploadPolicy
	logger  *slog.Logger

	uploading atomic.Bool
}

func NewAttachmentManager(api AttachmentAPI, c *cache.Cache, taskID int64, confirm Confirmer, opts ...Option) *AttachmentManager {
	o := buildOptions(opts)
	return &AttachmentManager{
		api:     api,
		cache:   c,
		taskID:  taskID,
		confirm: confirm,
		policy:  o.policy,
		logger:  o.logger,
	}
}

func (m *AttachmentManager) TaskID() int64 { return m.taskID }

// Uploading is true for the whole duration of an Upload batch.
func (m *AttachmentManager) Uploading() bool { return m.uploading.Load() }

// Upload sends files one at a time in the given order. The returned error
// is ErrUploadInProgress, or the joined per-file errors of the result.
func (m *AttachmentManager) Upload(ctx context.Context, files []UploadFile) (UploadResult, error) {
	var res UploadResult
	if !m.uploading.CompareAndSwap(false, true) {
		return res, ErrUploadInProgress
	}
	defer m.uploading.Store(false)

	for i, f := range files {
		a, err := m.uploadOne(ctx, f)
		if err != nil {
			m.logger.Warn("[attachment][upload][err]", "task_id", m.taskID, "file", f.Name, "error", err)
			res.Failed = append(res.Failed, FailedUpload{Name: f.Name, Err: err})
			if m.policy == StopOnError {
				for _, rest := range files[i+1:] {
					res.Skipped = append(res.Skipped, rest.Name)
				}
				break
			}
			continue
		}
		res.Uploaded = append(res.Uploaded, *a)
		m.cache.AttachmentsChanged(m.taskID)
		m.logger.Info("[attachment][upload][ok]", "task_id", m.taskID, "file", f.Name, "size", FormatFileSize(a.FileSize))
	}
	return res, res.Err()
}

func (m *AttachmentManager) uploadOne(ctx context.Context, f UploadFile) (*models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return m.api.UploadAttachment(ctx, m.taskID, f.Name, r)
}

// DeletePrompt is the confirmation question for deleting a.
func DeletePrompt(a models.Attachment) string {
	return `Delete "` + a.Filename + `"?`
}

// Delete removes a after the user confirms. It reports whether the
// attachment was deleted.
func (m *AttachmentManager) Delete(ctx context.Context, a models.Attachment) (bool, error) {
	ok, err := m.confirm.Confirm(DeletePrompt(a))
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := m.api.DeleteAttachment(ctx, m.taskID, a.ID); err != nil {
		return false, fmt.Errorf("delete attachment %d: %w", a.ID, err)
	}
	m.cache.AttachmentsChanged(m.taskID)
	m.logger.Info("[attachment][delete][ok]", "task_id", m.taskID, "attachment_id", a.ID)
	return true, nil
}

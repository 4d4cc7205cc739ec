package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskflow/internal/models"
)

type attachmentRepository struct{ db *sql.DB }

func NewAttachmentRepository(db *sql.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentColumns = `id, task_id, filename, file_path, file_size, content_type, uploaded_at`

func scanAttachment(row interface{ Scan(...any) error }, a *models.Attachment) error {
	return row.Scan(&a.ID, &a.TaskID, &a.Filename, &a.FilePath, &a.FileSize, &a.ContentType, &a.UploadedAt)
}

func (r *attachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	const q = `
		INSERT INTO attachments (task_id, filename, file_path, file_size, content_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, q,
		a.TaskID, a.Filename, a.FilePath, a.FileSize, a.ContentType, a.UploadedAt,
	).Scan(&a.ID); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) GetByID(ctx context.Context, taskID, id int64) (*models.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE id=$1 AND task_id=$2`
	var a models.Attachment
	err := scanAttachment(r.db.QueryRowContext(ctx, q, id, taskID), &a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &a, nil
}

func (r *attachmentRepository) ListByTask(ctx context.Context, taskID int64) ([]models.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE task_id=$1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	out := []models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		if err := scanAttachment(rows, &a); err != nil {
			return nil, fmt.Errorf("list attachments: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, taskID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id=$1 AND task_id=$2`, id, taskID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return expectOne(res)
}

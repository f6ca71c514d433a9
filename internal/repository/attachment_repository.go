package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTarget(ctx context.Context, target domain.CommentTarget) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	base
}

func NewAttachmentRepository(db sqlx.ExtContext) AttachmentRepository {
	return &attachmentRepository{base{db: db}}
}

const attachmentColumns = `id, task_id, complaint_id, uploaded_by, file_name, file_size, mime_type, storage_key, uploaded_at`

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	attachment.UploadedAt = time.Now().UTC()
	_, err := r.exec(ctx, `
		INSERT INTO attachments (`+attachmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attachment.ID, attachment.TaskID, attachment.ComplaintID, attachment.UploadedBy,
		attachment.FileName, attachment.FileSize, attachment.MimeType, attachment.StorageKey, attachment.UploadedAt,
	)
	return err
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := r.get(ctx, &attachment, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM attachments WHERE id = ?`, id)
}

func (r *attachmentRepository) ListByTarget(ctx context.Context, target domain.CommentTarget) ([]domain.Attachment, error) {
	column := "task_id"
	if target.Kind == domain.TargetComplaint {
		column = "complaint_id"
	}
	attachments := []domain.Attachment{}
	err := r.sel(ctx, &attachments, `SELECT `+attachmentColumns+` FROM attachments WHERE `+column+` = ? ORDER BY uploaded_at ASC, id`, target.ID)
	return attachments, err
}

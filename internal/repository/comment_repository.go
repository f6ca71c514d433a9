package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTarget(ctx context.Context, target domain.CommentTarget) ([]domain.Comment, error)
}

type commentRepository struct {
	base
}

func NewCommentRepository(db sqlx.ExtContext) CommentRepository {
	return &commentRepository{base{db: db}}
}

const commentSelect = `
	SELECT c.id, c.user_id, c.task_id, c.complaint_id, c.parent_id, c.content, c.created_at, u.username
	FROM comments c JOIN users u ON u.id = c.user_id`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = time.Now().UTC()
	_, err := r.exec(ctx, `
		INSERT INTO comments (id, user_id, task_id, complaint_id, parent_id, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.UserID, comment.TaskID, comment.ComplaintID, comment.ParentID, comment.Content, comment.CreatedAt,
	)
	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.get(ctx, &comment, commentSelect+` WHERE c.id = ?`, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes the comment and, through the parent FK, its replies.
func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM comments WHERE id = ?`, id)
}

// ListByTarget returns the flat thread in chronological order.
func (r *commentRepository) ListByTarget(ctx context.Context, target domain.CommentTarget) ([]domain.Comment, error) {
	column := "c.task_id"
	if target.Kind == domain.TargetComplaint {
		column = "c.complaint_id"
	}
	comments := []domain.Comment{}
	err := r.sel(ctx, &comments, commentSelect+` WHERE `+column+` = ? ORDER BY c.created_at ASC, c.id`, target.ID)
	return comments, err
}

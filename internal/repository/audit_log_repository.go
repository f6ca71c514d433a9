package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, params domain.PaginationParams) ([]domain.AuditLog, int64, error)
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	base
}

func NewAuditLogRepository(db sqlx.ExtContext) AuditLogRepository {
	return &auditLogRepository{base{db: db}}
}

const auditSelect = `
	SELECT al.id, al.user_id, u.username, al.action, al.entity_type, al.entity_id,
		al.old_value, al.new_value, al.ip_address, al.user_agent, al.created_at
	FROM audit_logs al
	LEFT JOIN users u ON al.user_id = u.id`

func (r *auditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	log.CreatedAt = time.Now().UTC()
	_, err := r.exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, old_value, new_value, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.UserID, log.Action, log.EntityType, log.EntityID,
		log.OldValue, log.NewValue, log.IPAddress, log.UserAgent, log.CreatedAt,
	)
	return err
}

func (r *auditLogRepository) List(ctx context.Context, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	params.Validate()

	var total int64
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM audit_logs`); err != nil {
		return nil, 0, err
	}

	logs := []domain.AuditLog{}
	err := r.sel(ctx, &logs, auditSelect+` ORDER BY al.created_at DESC, al.id LIMIT ? OFFSET ?`, params.PageSize, params.Offset())
	return logs, total, err
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditLog, error) {
	logs := []domain.AuditLog{}
	err := r.sel(ctx, &logs, auditSelect+` WHERE al.entity_type = ? AND al.entity_id = ? ORDER BY al.created_at DESC, al.id`, entityType, entityID)
	return logs, err
}

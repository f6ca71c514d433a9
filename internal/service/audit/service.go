package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

type Service interface {
	Log(ctx context.Context, input domain.CreateAuditLogInput) error
	List(ctx context.Context, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error)
	GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error)
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditLog, error)
}

type service struct {
	auditRepo repository.AuditLogRepository
}

func NewService(auditRepo repository.AuditLogRepository) Service {
	return &service{
		auditRepo: auditRepo,
	}
}

// Record writes an audit entry through repo, which may be bound to the caller's transaction.
func Record(ctx context.Context, repo repository.AuditLogRepository, input domain.CreateAuditLogInput) error {
	oldValue, err := marshalValue(input.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalValue(input.NewValue)
	if err != nil {
		return err
	}

	userID := input.UserID
	entry := &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     &userID,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		OldValue:   oldValue,
		NewValue:   newValue,
		IPAddress:  input.Client.IPAddress,
		UserAgent:  input.Client.UserAgent,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *service) Log(ctx context.Context, input domain.CreateAuditLogInput) error {
	return Record(ctx, s.auditRepo, input)
}

func (s *service) List(ctx context.Context, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	params.Validate()
	logs, total, err := s.auditRepo.List(ctx, params)
	if err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	return domain.NewPaginatedResponse(logs, params.Page, params.PageSize, total), nil
}

func (s *service) GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	params := domain.PaginationParams{
		Page:     1,
		PageSize: limit,
	}

	logs, _, err := s.auditRepo.List(ctx, params)
	return logs, err
}

func (s *service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, entityType, entityID)
}

func marshalValue(v interface{}) (domain.JSONText, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit value: %w", err)
	}
	return domain.JSONText(data), nil
}

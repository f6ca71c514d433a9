package complaint

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/i18n"
	"taskdesk/internal/pkg/logger"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/audit"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/notification"
)

type ListInput struct {
	Search string
	Status domain.ComplaintStatus
	Type   domain.ComplaintType
	Tag    string
	Page   int
}

type Service interface {
	List(ctx context.Context, actor *domain.Principal, input ListInput) (domain.PaginatedResponse[domain.Complaint], error)
	GetByID(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Complaint, error)
	Create(ctx context.Context, actor *domain.Principal, input domain.CreateComplaintInput, files []attachment.File) (*domain.Complaint, error)
	// Update is superuser only. Uploaded files replace the existing attachments.
	Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.UpdateComplaintInput, files []attachment.File, client domain.ClientInfo) (*domain.Complaint, error)
	Resolve(ctx context.Context, actor *domain.Principal, id uuid.UUID, client domain.ClientInfo) (*domain.Complaint, error)
	Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID, client domain.ClientInfo) error
}

type service struct {
	repos       *repository.Repositories
	notifier    notification.Service
	attachments attachment.Service
	cache       *cache.Cache
	locale      string
	log         *zap.Logger
}

func NewService(repos *repository.Repositories, notifier notification.Service, attachments attachment.Service, c *cache.Cache, locale string) Service {
	return &service{
		repos:       repos,
		notifier:    notifier,
		attachments: attachments,
		cache:       c,
		locale:      locale,
		log:         logger.WithModule("complaint"),
	}
}

func (s *service) List(ctx context.Context, actor *domain.Principal, input ListInput) (domain.PaginatedResponse[domain.Complaint], error) {
	params := domain.FixedPage(input.Page)
	complaints, total, err := s.repos.Complaint.List(ctx, domain.ComplaintFilter{
		ViewerID: actor.ID(),
		AllUsers: actor.IsSuperuser(),
		Search:   input.Search,
		Status:   input.Status,
		Type:     input.Type,
		Tag:      input.Tag,
		Page:     params,
	})
	if err != nil {
		return domain.PaginatedResponse[domain.Complaint]{}, err
	}
	return domain.NewPaginatedResponse(complaints, params.Page, params.PageSize, total), nil
}

func (s *service) GetByID(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Complaint, error) {
	complaint, err := s.repos.Complaint.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Complaint(actor, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

func (s *service) Create(ctx context.Context, actor *domain.Principal, input domain.CreateComplaintInput, files []attachment.File) (*domain.Complaint, error) {
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkTags(ctx, input.TagIDs); err != nil {
		return nil, err
	}

	complaintType := input.ComplaintType
	if complaintType == "" {
		complaintType = domain.ComplaintOther
	}
	complaint := &domain.Complaint{
		ID:            uuid.New(),
		UserID:        actor.ID(),
		ComplaintType: complaintType,
		Subject:       strings.TrimSpace(input.Subject),
		Message:       input.Message,
		Status:        domain.ComplaintPending,
	}

	err := s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Complaint.Create(ctx, complaint); err != nil {
			return err
		}
		return tx.Complaint.SetTags(ctx, complaint.ID, input.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	target := domain.CommentTarget{Kind: domain.TargetComplaint, ID: complaint.ID}
	for _, file := range files {
		if _, err := s.attachments.Upload(ctx, actor, target, file); err != nil {
			return nil, err
		}
	}

	s.cache.Invalidate(ctx, "dashboard:*")
	return s.repos.Complaint.GetByID(ctx, complaint.ID)
}

func (s *service) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.UpdateComplaintInput, files []attachment.File, client domain.ClientInfo) (*domain.Complaint, error) {
	if err := access.Superuser(actor, access.ResourceComplaint); err != nil {
		return nil, err
	}
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.TagIDs != nil {
		if err := s.checkTags(ctx, *input.TagIDs); err != nil {
			return nil, err
		}
	}

	complaint, err := s.repos.Complaint.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := complaint.Status

	if input.ComplaintType != nil {
		complaint.ComplaintType = *input.ComplaintType
	}
	if input.Subject != nil {
		complaint.Subject = strings.TrimSpace(*input.Subject)
	}
	if input.Message != nil {
		complaint.Message = *input.Message
	}
	if input.Status != nil {
		complaint.Status = *input.Status
	}

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Complaint.Update(ctx, complaint); err != nil {
			return err
		}
		if input.TagIDs != nil {
			if err := tx.Complaint.SetTags(ctx, complaint.ID, *input.TagIDs); err != nil {
				return err
			}
		}
		return s.statusChanged(ctx, tx, actor, complaint, previous, client)
	})
	if err != nil {
		return nil, err
	}

	if len(files) > 0 {
		target := domain.CommentTarget{Kind: domain.TargetComplaint, ID: complaint.ID}
		if _, err := s.attachments.Replace(ctx, actor, target, files); err != nil {
			return nil, err
		}
	}

	s.cache.Invalidate(ctx, "dashboard:*")
	return s.repos.Complaint.GetByID(ctx, complaint.ID)
}

func (s *service) Resolve(ctx context.Context, actor *domain.Principal, id uuid.UUID, client domain.ClientInfo) (*domain.Complaint, error) {
	status := domain.ComplaintResolved
	return s.Update(ctx, actor, id, domain.UpdateComplaintInput{Status: &status}, nil, client)
}

func (s *service) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID, client domain.ClientInfo) error {
	if err := access.Superuser(actor, access.ResourceComplaint); err != nil {
		return err
	}
	complaint, err := s.repos.Complaint.GetByID(ctx, id)
	if err != nil {
		return err
	}
	attachments, err := s.repos.Attachment.ListByTarget(ctx, domain.CommentTarget{Kind: domain.TargetComplaint, ID: id})
	if err != nil {
		return err
	}

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Complaint.Delete(ctx, id); err != nil {
			return err
		}
		return audit.Record(ctx, tx.AuditLog, domain.CreateAuditLogInput{
			UserID:     actor.ID(),
			Action:     domain.AuditDelete,
			EntityType: access.ResourceComplaint,
			EntityID:   id,
			OldValue:   complaint,
			Client:     client,
		})
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.StorageKey)
	}
	s.attachments.PurgeObjects(ctx, keys)
	s.cache.Invalidate(ctx, "dashboard:*")
	s.cache.Invalidate(ctx, "comments:complaint:"+id.String())
	return nil
}

// statusChanged audits a status transition and tells the owner about it.
func (s *service) statusChanged(ctx context.Context, tx *repository.Repositories, actor *domain.Principal, complaint *domain.Complaint, previous domain.ComplaintStatus, client domain.ClientInfo) error {
	if complaint.Status == previous {
		return nil
	}

	err := audit.Record(ctx, tx.AuditLog, domain.CreateAuditLogInput{
		UserID:     actor.ID(),
		Action:     domain.AuditComplaintStatus,
		EntityType: access.ResourceComplaint,
		EntityID:   complaint.ID,
		OldValue:   map[string]domain.ComplaintStatus{"status": previous},
		NewValue:   map[string]domain.ComplaintStatus{"status": complaint.Status},
		Client:     client,
	})
	if err != nil {
		return err
	}

	if complaint.UserID == actor.ID() {
		return nil
	}
	complaintID := complaint.ID
	_, err = s.notifier.Notify(ctx, tx, notification.Notice{
		UserID:    complaint.UserID,
		Category:  domain.CategoryComplaint,
		Message:   i18n.Format(s.locale, "complaint.status.notification", complaint.Subject, complaint.Status),
		RelatedID: &complaintID,
	})
	if err != nil {
		return err
	}
	s.log.Info("complaint status changed",
		zap.String("complaint_id", complaint.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(complaint.Status)),
	)
	return nil
}

func (s *service) checkTags(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.repos.Tag.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	if n != len(seen) {
		return pkgvalidator.Field("tags", "exists")
	}
	return nil
}

package tag

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskdesk/internal/domain"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
)

type Service interface {
	List(ctx context.Context) ([]domain.Tag, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	Create(ctx context.Context, actor *domain.Principal, input domain.TagInput) (*domain.Tag, error)
	Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.TagInput) (*domain.Tag, error)
	Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error
}

type service struct {
	tagRepo repository.TagRepository
}

func NewService(tagRepo repository.TagRepository) Service {
	return &service{tagRepo: tagRepo}
}

func (s *service) List(ctx context.Context) ([]domain.Tag, error) {
	return s.tagRepo.List(ctx)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	return s.tagRepo.GetByID(ctx, id)
}

// Create is open to every authenticated user; tags are shared vocabulary.
func (s *service) Create(ctx context.Context, actor *domain.Principal, input domain.TagInput) (*domain.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	tag := &domain.Tag{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *service) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, input domain.TagInput) (*domain.Tag, error) {
	if err := access.Superuser(actor, access.ResourceTag); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tag.Name = input.Name
	tag.Description = input.Description
	if input.Color != "" {
		tag.Color = input.Color
	}
	if err := s.tagRepo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *service) Delete(ctx context.Context, actor *domain.Principal, id uuid.UUID) error {
	if err := access.Superuser(actor, access.ResourceTag); err != nil {
		return err
	}
	return s.tagRepo.Delete(ctx, id)
}

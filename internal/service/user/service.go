package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/storage"
)

type Service interface {
	GetProfile(ctx context.Context, actor *domain.Principal) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor *domain.Principal, input domain.UpdateProfileInput) (*domain.User, error)
	// SetAvatar stores file under the user's avatar key, replacing any previous image.
	SetAvatar(ctx context.Context, userID uuid.UUID, file attachment.File) (*domain.User, error)

	// List is the admin view of every account except the caller's.
	List(ctx context.Context, actor *domain.Principal, search string, page int) (domain.PaginatedResponse[domain.User], error)
	ListAssignable(ctx context.Context) ([]domain.UserSummary, error)
	Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error)
}

type service struct {
	repos *repository.Repositories
	store storage.ObjectStore
	log   *zap.Logger
}

func NewService(repos *repository.Repositories, store storage.ObjectStore) Service {
	return &service{
		repos: repos,
		store: store,
		log:   logger.WithModule("user"),
	}
}

func (s *service) GetProfile(ctx context.Context, actor *domain.Principal) (*domain.User, error) {
	return s.load(ctx, actor.ID())
}

func (s *service) UpdateProfile(ctx context.Context, actor *domain.Principal, input domain.UpdateProfileInput) (*domain.User, error) {
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, actor.ID())
	if err != nil {
		return nil, err
	}
	profile := user.Profile

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		profile.Phone = *input.Phone
	}
	if input.Bio != nil {
		profile.Bio = *input.Bio
	}
	setFlag(&profile.NotifyEmail, input.NotifyEmail)
	setFlag(&profile.NotifyInApp, input.NotifyInApp)
	setFlag(&profile.NotifySound, input.NotifySound)
	setFlag(&profile.ReminderEmail, input.ReminderEmail)
	setFlag(&profile.ReminderInApp, input.ReminderInApp)
	setFlag(&profile.ReminderSound, input.ReminderSound)

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		return tx.User.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, user.ID)
}

func (s *service) SetAvatar(ctx context.Context, userID uuid.UUID, file attachment.File) (*domain.User, error) {
	if s.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	if file.Size > domain.MaxAttachmentSize {
		return nil, domain.ErrFileTooLarge
	}

	profile, err := s.repos.User.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := storage.AvatarKey(userID)
	if err := s.store.Put(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
		return nil, err
	}
	profile.AvatarKey = &key
	if err := s.repos.User.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *service) List(ctx context.Context, actor *domain.Principal, search string, page int) (domain.PaginatedResponse[domain.User], error) {
	if err := access.Superuser(actor, access.ResourceUser); err != nil {
		return domain.PaginatedResponse[domain.User]{}, err
	}

	params := domain.FixedPage(page)
	users, total, err := s.repos.User.List(ctx, domain.UserFilter{Search: search, ExcludeID: actor.ID()}, params)
	if err != nil {
		return domain.PaginatedResponse[domain.User]{}, err
	}
	return domain.NewPaginatedResponse(users, params.Page, params.PageSize, total), nil
}

func (s *service) ListAssignable(ctx context.Context) ([]domain.UserSummary, error) {
	return s.repos.User.ListAssignable(ctx)
}

// Create inserts the account and its default profile together.
func (s *service) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        strings.TrimSpace(input.Email),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hash),
		IsStaff:      input.IsStaff || input.IsSuperuser,
		IsSuperuser:  input.IsSuperuser,
		IsActive:     true,
	}
	profile := domain.DefaultProfile(user.ID)
	profile.Phone = input.Phone
	if input.Role != "" {
		profile.Role = input.Role
	}

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		return tx.User.Create(ctx, user, profile)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repos.User.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.AvatarKey != nil && s.store != nil {
		url, err := s.store.URL(ctx, *profile.AvatarKey)
		if err != nil {
			s.log.Warn("failed to sign avatar url", zap.Error(err))
		} else {
			profile.AvatarURL = url
		}
	}
	user.Profile = profile
	return user, nil
}

func setFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

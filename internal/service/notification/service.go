package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/pkg/metrics"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/email"
)

// ListInput carries the raw feed filters; dates are inclusive YYYY-MM-DD in the configured timezone.
type ListInput struct {
	Status    domain.ReadStatus
	Category  domain.NotificationCategory
	StartDate string
	EndDate   string
	Page      int
}

// Notice describes one notification to create. Email renders the email body for the
// recipient; nil means in-app only.
type Notice struct {
	UserID    uuid.UUID
	Category  domain.NotificationCategory
	Message   string
	RelatedID *uuid.UUID
	Email     func(recipient *domain.User) (email.Content, error)
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID, input ListInput) (*domain.NotificationPage, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	Poll(ctx context.Context, userID uuid.UUID) (*domain.NotificationPoll, error)

	// Notify creates the notification and queues its email through repos, which should be
	// bound to the caller's transaction.
	Notify(ctx context.Context, repos *repository.Repositories, notice Notice) (*domain.Notification, error)
}

type service struct {
	notifRepo repository.NotificationRepository
	emailSvc  email.Service
	location  *time.Location
	log       *zap.Logger
}

func NewService(notifRepo repository.NotificationRepository, emailSvc email.Service, location *time.Location) Service {
	return &service{
		notifRepo: notifRepo,
		emailSvc:  emailSvc,
		location:  location,
		log:       logger.WithModule("notification"),
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, input ListInput) (*domain.NotificationPage, error) {
	from, to, err := domain.ParseDateRange(input.StartDate, input.EndDate, s.location)
	if err != nil {
		return nil, err
	}
	if input.Category != "" && !input.Category.IsValid() {
		input.Category = ""
	}

	params := domain.FixedPage(input.Page)
	notifications, total, err := s.notifRepo.List(ctx, domain.NotificationFilter{
		UserID:   userID,
		Status:   input.Status,
		Category: input.Category,
		From:     from,
		To:       to,
		Page:     params,
	})
	if err != nil {
		return nil, err
	}

	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.NotificationPage{
		PaginatedResponse: domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total),
		UnreadCount:       unread,
	}, nil
}

func (s *service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.notifRepo.MarkAsRead(ctx, id, userID)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.notifRepo.MarkAllAsRead(ctx, userID)
	return err
}

func (s *service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

func (s *service) Poll(ctx context.Context, userID uuid.UUID) (*domain.NotificationPoll, error) {
	latest, err := s.notifRepo.LatestUnpopped(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.NotificationPoll{HasNew: false}, nil
	}
	if err != nil {
		return nil, err
	}

	popped, err := s.notifRepo.MarkPopped(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	if !popped {
		return &domain.NotificationPoll{HasNew: false}, nil
	}

	count, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.NotificationPoll{
		HasNew:   true,
		Count:    count,
		Title:    domain.PollTitle(latest.Message),
		Message:  latest.Message,
		Category: latest.Category,
	}, nil
}

func (s *service) Notify(ctx context.Context, repos *repository.Repositories, notice Notice) (*domain.Notification, error) {
	recipient, err := repos.User.GetByID(ctx, notice.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	profile, err := repos.User.GetProfile(ctx, notice.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient profile: %w", err)
	}

	wantsEmail := profile.NotifyEmail
	if notice.Category == domain.CategoryReminder {
		wantsEmail = profile.ReminderEmail
	}
	sendEmail := notice.Email != nil && wantsEmail && recipient.Email != ""

	notif := &domain.Notification{
		ID:        uuid.New(),
		UserID:    notice.UserID,
		Message:   notice.Message,
		Category:  notice.Category,
		RelatedID: notice.RelatedID,
		SendEmail: sendEmail,
	}
	if err := repos.Notification.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(notif.Category)).Inc()

	if sendEmail {
		content, err := notice.Email(recipient)
		if err != nil {
			return nil, err
		}
		if err := s.emailSvc.Enqueue(ctx, repos.Outbox, recipient.Email, content); err != nil {
			return nil, fmt.Errorf("failed to queue email: %w", err)
		}
	}

	s.log.Debug("notification created",
		zap.String("user_id", notice.UserID.String()),
		zap.String("category", string(notice.Category)),
		zap.Bool("email", sendEmail),
	)
	return notif, nil
}

package service

import (
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"taskdesk/internal/config"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/pkg/mail"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/audit"
	"taskdesk/internal/service/auth"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/comment"
	"taskdesk/internal/service/complaint"
	"taskdesk/internal/service/dashboard"
	"taskdesk/internal/service/email"
	"taskdesk/internal/service/export"
	"taskdesk/internal/service/notification"
	"taskdesk/internal/service/outbox"
	"taskdesk/internal/service/reminder"
	"taskdesk/internal/service/storage"
	"taskdesk/internal/service/tag"
	"taskdesk/internal/service/task"
	"taskdesk/internal/service/user"
)

type Services struct {
	Auth         auth.Service
	User         user.Service
	Task         task.Service
	Tag          tag.Service
	Reminder     reminder.Service
	Complaint    complaint.Service
	Comment      comment.Service
	Attachment   attachment.Service
	Email        email.Service
	Audit        audit.Service
	Notification notification.Service
	Dashboard    dashboard.Service
	Export       export.Service
	Outbox       *outbox.Dispatcher
	Sessions     repository.SessionRepository
}

func NewServices(repos *repository.Repositories, redisClient *redis.Client, minioClient *minio.Client, sender mail.Sender, cfg *config.Config) *Services {
	location := cfg.Location()
	c := cache.New(redisClient)
	store := storage.NewMinIOStore(minioClient, cfg.MinIOBucket)

	emailService := email.NewService(cfg)
	dispatcher := outbox.NewDispatcher(repos.Outbox, sender, outbox.Options{
		From:        cfg.FromEmail,
		BatchSize:   cfg.OutboxBatchSize,
		MaxAttempts: cfg.OutboxMaxAttempts,
	})
	notificationService := notification.NewService(repos.Notification, emailService, location)
	attachmentService := attachment.NewService(repos, store)

	reminderService := reminder.NewService(repos, notificationService, emailService, dispatcher, c, reminder.Options{
		Locale:   cfg.Locale,
		Location: location,
	})
	taskService := task.NewService(repos, notificationService, emailService, attachmentService, c, task.Options{
		Locale:   cfg.Locale,
		Location: location,
	})

	return &Services{
		Auth:         auth.NewService(repos, cfg),
		User:         user.NewService(repos, store),
		Task:         taskService,
		Tag:          tag.NewService(repos.Tag),
		Reminder:     reminderService,
		Complaint:    complaint.NewService(repos, notificationService, attachmentService, c, cfg.Locale),
		Comment:      comment.NewService(repos, notificationService, c, cfg.Locale),
		Attachment:   attachmentService,
		Email:        emailService,
		Audit:        audit.NewService(repos.AuditLog),
		Notification: notificationService,
		Dashboard:    dashboard.NewService(repos, c),
		Export:       export.NewService(repos, location),
		Outbox:       dispatcher,
		Sessions:     repos.Session,
	}
}

// NewMailSender picks the delivery backend named by MAIL_PROVIDER.
func NewMailSender(cfg *config.Config) (mail.Sender, error) {
	switch cfg.MailProvider {
	case "resend":
		return mail.NewResendSender(cfg.ResendAPIKey, cfg.FromEmail)
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.FromEmail,
			UseTLS:   cfg.SMTPUseTLS,
		})
	case "", "log":
		return mail.NewLogSender(logger.WithModule("mail")), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}

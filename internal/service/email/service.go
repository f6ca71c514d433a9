package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/i18n"
	"taskdesk/internal/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

// Content is a rendered email ready to be queued.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	ReminderDue(recipient *domain.User, taskTitle string) (Content, error)
	TaskAssigned(recipient *domain.User, assignerName, taskTitle string) (Content, error)
	// Enqueue writes the email to the outbox bound to the caller's transaction.
	Enqueue(ctx context.Context, outbox repository.OutboxRepository, to string, content Content) error
}

type service struct {
	layout *template.Template
	locale string
	domain string
}

func NewService(cfg *config.Config) Service {
	return &service{
		layout: template.Must(template.ParseFS(templateFS, "templates/layout.html")),
		locale: cfg.Locale,
		domain: cfg.Domain,
	}
}

func (s *service) ReminderDue(recipient *domain.User, taskTitle string) (Content, error) {
	return s.render(
		i18n.Format(s.locale, "reminder.email.subject", taskTitle),
		i18n.Format(s.locale, "reminder.email.body", recipient.FullName(), taskTitle),
	)
}

func (s *service) TaskAssigned(recipient *domain.User, assignerName, taskTitle string) (Content, error) {
	return s.render(
		i18n.Format(s.locale, "task.assigned.email.subject", taskTitle),
		i18n.Format(s.locale, "task.assigned.email.body", recipient.FullName(), assignerName, taskTitle),
	)
}

func (s *service) Enqueue(ctx context.Context, outbox repository.OutboxRepository, to string, content Content) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	return outbox.Enqueue(ctx, &domain.OutboxEmail{
		ToAddress: to,
		Subject:   content.Subject,
		TextBody:  content.Text,
		HTMLBody:  content.HTML,
	})
}

func (s *service) render(subject, text string) (Content, error) {
	data := struct {
		Subject    string
		Paragraphs []string
		Link       string
	}{
		Subject:    subject,
		Paragraphs: strings.Split(text, "\n\n"),
	}
	if s.domain != "" {
		data.Link = fmt.Sprintf("https://%s/", s.domain)
	}

	var body bytes.Buffer
	if err := s.layout.Execute(&body, data); err != nil {
		return Content{}, fmt.Errorf("failed to execute email template: %w", err)
	}

	return Content{Subject: subject, Text: text, HTML: body.String()}, nil
}

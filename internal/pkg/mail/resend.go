package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

type resendEmails interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type resendSender struct {
	emails resendEmails
	from   string
}

// NewResendSender builds a Sender backed by the Resend HTTP API.
func NewResendSender(apiKey, from string) (Sender, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("resend: api key is required")
	}
	client := resend.NewClient(apiKey)
	return &resendSender{emails: client.Emails, from: from}, nil
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      recipients,
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	if _, err := s.emails.Send(params); err != nil {
		return fmt.Errorf("resend: send: %w", err)
	}
	return nil
}

package mail

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrNoRecipients is returned when a message carries no usable address.
var ErrNoRecipients = errors.New("mail: at least one recipient is required")

// Message represents an outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type logSender struct {
	log *zap.Logger
}

// NewLogSender returns a Sender that only logs messages. Used when no provider is configured.
func NewLogSender(log *zap.Logger) Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &logSender{log: log}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	recipients := uniqueAddresses(msg.To)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	s.log.Info("email suppressed",
		zap.Strings("to", recipients),
		zap.String("subject", msg.Subject),
		zap.Int("text_bytes", len(msg.Text)),
	)
	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, exists := seen[addr]; exists {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

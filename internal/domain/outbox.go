package domain

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSending OutboxStatus = "sending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEmail is an email queued in the same transaction as the event that produced it.
type OutboxEmail struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	ToAddress string       `json:"to_address" db:"to_address"`
	Subject   string       `json:"subject" db:"subject"`
	TextBody  string       `json:"text_body" db:"text_body"`
	HTMLBody  string       `json:"html_body" db:"html_body"`
	Status    OutboxStatus `json:"status" db:"status"`
	Attempts  int          `json:"attempts" db:"attempts"`
	LastError *string      `json:"last_error,omitempty" db:"last_error"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	ClaimedAt *time.Time   `json:"claimed_at,omitempty" db:"claimed_at"`
	SentAt    *time.Time   `json:"sent_at,omitempty" db:"sent_at"`
}

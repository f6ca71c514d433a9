package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, email *domain.OutboxEmail) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEmail, error)
	ListPending(ctx context.Context, maxAttempts, limit int) ([]domain.OutboxEmail, error)
	// Claim moves a pending row to sending. It reports false when another dispatcher got it first.
	Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// ReleaseStale returns rows claimed before cutoff to pending.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	// RecordFailure releases a claimed row, bumping attempts and failing it once attempts reach maxAttempts.
	RecordFailure(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error
	CountByStatus(ctx context.Context, status domain.OutboxStatus) (int64, error)
}

type outboxRepository struct {
	base
}

func NewOutboxRepository(db sqlx.ExtContext) OutboxRepository {
	return &outboxRepository{base{db: db}}
}

const outboxColumns = `id, to_address, subject, text_body, html_body, status, attempts, last_error, created_at, claimed_at, sent_at`

func (r *outboxRepository) Enqueue(ctx context.Context, email *domain.OutboxEmail) error {
	if email.ID == uuid.Nil {
		email.ID = uuid.New()
	}
	email.Status = domain.OutboxPending
	email.Attempts = 0
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now().UTC()
	}
	_, err := r.exec(ctx, `
		INSERT INTO email_outbox (`+outboxColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?, NULL, NULL)`,
		email.ID, email.ToAddress, email.Subject, email.TextBody, email.HTMLBody, email.Status, email.CreatedAt.UTC(),
	)
	return err
}

func (r *outboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEmail, error) {
	var email domain.OutboxEmail
	if err := r.get(ctx, &email, `SELECT `+outboxColumns+` FROM email_outbox WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &email, nil
}

func (r *outboxRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]domain.OutboxEmail, error) {
	emails := []domain.OutboxEmail{}
	err := r.sel(ctx, &emails, `
		SELECT `+outboxColumns+` FROM email_outbox
		WHERE status = ? AND attempts < ?
		ORDER BY created_at ASC, id LIMIT ?`,
		domain.OutboxPending, maxAttempts, limit,
	)
	return emails, err
}

func (r *outboxRepository) Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	n, err := r.execAffected(ctx, `
		UPDATE email_outbox SET status = ?, claimed_at = ?
		WHERE id = ? AND status = ?`,
		domain.OutboxSending, at.UTC(), id, domain.OutboxPending,
	)
	return n == 1, err
}

func (r *outboxRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.execAffected(ctx, `
		UPDATE email_outbox SET status = ?, claimed_at = NULL
		WHERE status = ? AND claimed_at < ?`,
		domain.OutboxPending, domain.OutboxSending, cutoff.UTC(),
	)
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.execOne(ctx, `
		UPDATE email_outbox SET status = ?, sent_at = ?, attempts = attempts + 1, last_error = NULL
		WHERE id = ? AND status = ?`,
		domain.OutboxSent, at.UTC(), id, domain.OutboxSending,
	)
}

func (r *outboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error {
	return r.execOne(ctx, `
		UPDATE email_outbox
		SET attempts = attempts + 1,
			last_error = ?,
			claimed_at = NULL,
			status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END
		WHERE id = ? AND status = ?`,
		errMsg, maxAttempts, domain.OutboxFailed, domain.OutboxPending, id, domain.OutboxSending,
	)
}

func (r *outboxRepository) CountByStatus(ctx context.Context, status domain.OutboxStatus) (int64, error) {
	var n int64
	err := r.get(ctx, &n, `SELECT COUNT(*) FROM email_outbox WHERE status = ?`, status)
	return n, err
}

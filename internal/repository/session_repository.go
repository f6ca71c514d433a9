package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetActive(ctx context.Context, id uuid.UUID, tokenHash string, now time.Time) (*domain.Session, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Session, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	base
}

func NewSessionRepository(db sqlx.ExtContext) SessionRepository {
	return &sessionRepository{base{db: db}}
}

const sessionColumns = `id, user_id, origin_user_id, token_hash, ip_address, user_agent, expires_at, created_at, revoked_at`

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := r.exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		session.ID, session.UserID, session.OriginUserID, session.TokenHash,
		session.IPAddress, session.UserAgent, session.ExpiresAt.UTC(), session.CreatedAt.UTC(),
	)
	return err
}

func (r *sessionRepository) GetActive(ctx context.Context, id uuid.UUID, tokenHash string, now time.Time) (*domain.Session, error) {
	var session domain.Session
	err := r.get(ctx, &session, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE id = ? AND token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		id, tokenHash, now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.sel(ctx, &sessions, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = ? AND revoked_at IS NULL AND expires_at > ?
		ORDER BY created_at DESC`,
		userID, now.UTC(),
	)
	return sessions, err
}

func (r *sessionRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.exec(ctx, `UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, at.UTC(), id)
	return err
}

func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := r.exec(ctx, `UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`, at.UTC(), userID)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.execAffected(ctx, `DELETE FROM sessions WHERE expires_at < ? OR revoked_at IS NOT NULL`, now.UTC())
}

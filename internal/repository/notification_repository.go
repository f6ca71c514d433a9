package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, notif *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error)
	ListByRelated(ctx context.Context, userID uuid.UUID, category domain.NotificationCategory, relatedID uuid.UUID) ([]domain.Notification, error)
	// MarkAsRead is scoped to userID; a notification of another user is reported as not found.
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	LatestUnpopped(ctx context.Context, userID uuid.UUID) (*domain.Notification, error)
	// MarkPopped sets is_popped once and reports whether this call set it.
	MarkPopped(ctx context.Context, id uuid.UUID) (bool, error)
}

type notificationRepository struct {
	base
}

func NewNotificationRepository(db sqlx.ExtContext) NotificationRepository {
	return &notificationRepository{base{db: db}}
}

const notificationColumns = `id, user_id, message, category, related_id, send_email, is_read, is_popped, created_at`

func (r *notificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now().UTC()
	}
	if notif.Category == "" {
		notif.Category = domain.CategorySystem
	}
	_, err := r.exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		notif.ID, notif.UserID, notif.Message, notif.Category, notif.RelatedID,
		notif.SendEmail, notif.IsRead, notif.IsPopped, notif.CreatedAt.UTC(),
	)
	return err
}

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notif domain.Notification
	if err := r.get(ctx, &notif, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &notif, nil
}

func (r *notificationRepository) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	params := filter.Page
	params.Validate()

	var w where
	w.add("user_id = ?", filter.UserID)
	switch filter.Status {
	case domain.ReadStatusUnread:
		w.add("is_read = FALSE")
	case domain.ReadStatusRead:
		w.add("is_read = TRUE")
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	if filter.From != nil {
		w.add("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		w.add("created_at < ?", filter.To.UTC())
	}

	var total int64
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM notifications`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}

	notifications := []domain.Notification{}
	args := append(append([]interface{}{}, w.args...), params.PageSize, params.Offset())
	err := r.sel(ctx, &notifications, `SELECT `+notificationColumns+` FROM notifications`+w.String()+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, args...)
	return notifications, total, err
}

func (r *notificationRepository) ListByRelated(ctx context.Context, userID uuid.UUID, category domain.NotificationCategory, relatedID uuid.UUID) ([]domain.Notification, error) {
	notifications := []domain.Notification{}
	err := r.sel(ctx, &notifications, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND category = ? AND related_id = ?
		ORDER BY created_at DESC`,
		userID, category, relatedID,
	)
	return notifications, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	var n int
	if err := r.get(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	_, err := r.exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ? AND is_read = FALSE`, id, userID)
	return err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.execAffected(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`, userID)
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.get(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`, userID)
	return count, err
}

func (r *notificationRepository) LatestUnpopped(ctx context.Context, userID uuid.UUID) (*domain.Notification, error) {
	var notif domain.Notification
	err := r.get(ctx, &notif, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND is_read = FALSE AND is_popped = FALSE
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return &notif, nil
}

func (r *notificationRepository) MarkPopped(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.execAffected(ctx, `UPDATE notifications SET is_popped = TRUE WHERE id = ? AND is_popped = FALSE`, id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

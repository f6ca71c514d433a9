package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskdesk/internal/domain"
)

type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	Update(ctx context.Context, reminder *domain.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	List(ctx context.Context, filter domain.ReminderFilter) ([]domain.Reminder, int64, error)
	ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]domain.Reminder, error)

	// MarkTriggered flips is_triggered false→true and reports whether this call made the change.
	MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListDueForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Reminder, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	CountUpcomingAssigned(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
}

type reminderRepository struct {
	base
}

func NewReminderRepository(db sqlx.ExtContext) ReminderRepository {
	return &reminderRepository{base{db: db}}
}

const reminderSelect = `
	SELECT r.id, r.task_id, r.title, r.fire_at, r.created_by, r.is_triggered, r.created_at, r.updated_at,
		t.title AS task_title
	FROM reminders r JOIN tasks t ON t.id = r.task_id`

const reminderVisibleTo = `(r.created_by = ? OR EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = r.task_id AND a.user_id = ?))`

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	now := time.Now().UTC()
	reminder.CreatedAt, reminder.UpdatedAt = now, now
	_, err := r.exec(ctx, `
		INSERT INTO reminders (id, task_id, title, fire_at, created_by, is_triggered, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.ID, reminder.TaskID, reminder.Title, reminder.FireAt.UTC(), reminder.CreatedBy,
		reminder.IsTriggered, reminder.CreatedAt, reminder.UpdatedAt,
	)
	return err
}

// Update persists an edit. is_triggered is written as given, so the edit path can reset it.
func (r *reminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	reminder.UpdatedAt = time.Now().UTC()
	return r.execOne(ctx, `
		UPDATE reminders SET task_id = ?, title = ?, fire_at = ?, is_triggered = ?, updated_at = ?
		WHERE id = ?`,
		reminder.TaskID, reminder.Title, reminder.FireAt.UTC(), reminder.IsTriggered, reminder.UpdatedAt, reminder.ID,
	)
}

func (r *reminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM reminders WHERE id = ?`, id)
}

func (r *reminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	var reminder domain.Reminder
	if err := r.get(ctx, &reminder, reminderSelect+` WHERE r.id = ?`, id); err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) List(ctx context.Context, filter domain.ReminderFilter) ([]domain.Reminder, int64, error) {
	params := filter.Page
	params.Validate()

	var w where
	if !filter.AllUsers {
		w.add(reminderVisibleTo, filter.ViewerID, filter.ViewerID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		w.add("LOWER(t.title) LIKE ?", likePattern(s))
	}
	if filter.From != nil {
		w.add("r.fire_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		w.add("r.fire_at < ?", filter.To.UTC())
	}

	var total int64
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM reminders r JOIN tasks t ON t.id = r.task_id`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}

	reminders := []domain.Reminder{}
	args := append(append([]interface{}{}, w.args...), params.PageSize, params.Offset())
	err := r.sel(ctx, &reminders, reminderSelect+w.String()+` ORDER BY r.fire_at DESC, r.id LIMIT ? OFFSET ?`, args...)
	return reminders, total, err
}

func (r *reminderRepository) ListCreatedBy(ctx context.Context, userID uuid.UUID) ([]domain.Reminder, error) {
	reminders := []domain.Reminder{}
	err := r.sel(ctx, &reminders, reminderSelect+` WHERE r.created_by = ? ORDER BY r.fire_at DESC`, userID)
	return reminders, err
}

func (r *reminderRepository) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	n, err := r.execAffected(ctx, `
		UPDATE reminders SET is_triggered = TRUE, updated_at = ?
		WHERE id = ? AND is_triggered = FALSE`,
		at.UTC(), id,
	)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *reminderRepository) ListDueForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Reminder, error) {
	reminders := []domain.Reminder{}
	err := r.sel(ctx, &reminders, reminderSelect+`
		WHERE r.fire_at <= ? AND r.is_triggered = FALSE AND `+reminderVisibleTo+`
		ORDER BY r.fire_at ASC`,
		now.UTC(), userID, userID,
	)
	return reminders, err
}

func (r *reminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	reminders := []domain.Reminder{}
	err := r.sel(ctx, &reminders, reminderSelect+`
		WHERE r.fire_at <= ? AND r.is_triggered = FALSE
		ORDER BY r.fire_at ASC LIMIT ?`,
		now.UTC(), limit,
	)
	return reminders, err
}

// CountUpcomingAssigned counts reminders in [from, to] on tasks assigned to userID.
func (r *reminderRepository) CountUpcomingAssigned(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	err := r.get(ctx, &n, `
		SELECT COUNT(*) FROM reminders r
		WHERE r.fire_at >= ? AND r.fire_at <= ?
			AND EXISTS (SELECT 1 FROM task_assignees a WHERE a.task_id = r.task_id AND a.user_id = ?)`,
		from.UTC(), to.UTC(), userID,
	)
	return n, err
}

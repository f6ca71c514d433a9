package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taskdesk/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.UserFilter, params domain.PaginationParams) ([]domain.User, int64, error)
	ListAssignable(ctx context.Context) ([]domain.UserSummary, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
}

type userRepository struct {
	base
}

func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{base{db: db}}
}

const userColumns = `id, username, email, first_name, last_name, password_hash, is_staff, is_superuser, is_active, last_login_at, created_at, updated_at`

const profileColumns = `user_id, avatar_key, role, phone, bio, notify_email, notify_in_app, notify_sound, reminder_email, reminder_in_app, reminder_sound, updated_at`

// Create inserts the user and its profile; callers wrap it in a transaction so both land together.
func (r *userRepository) Create(ctx context.Context, user *domain.User, profile *domain.Profile) error {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.IsStaff, user.IsSuperuser, user.IsActive, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrConflict)
		}
		return err
	}

	if profile == nil {
		profile = domain.DefaultProfile(user.ID)
	}
	profile.UserID = user.ID
	profile.UpdatedAt = now

	_, err = r.exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID, profile.AvatarKey, profile.Role, profile.Phone, profile.Bio,
		profile.NotifyEmail, profile.NotifyInApp, profile.NotifySound,
		profile.ReminderEmail, profile.ReminderInApp, profile.ReminderSound, profile.UpdatedAt,
	)
	if err != nil {
		return err
	}

	user.Profile = profile
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = ?`, username); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	query, args, err := r.in(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	err = r.sel(ctx, &users, query+` ORDER BY username`, args...)
	return users, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM users WHERE username = ?`, username); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	return r.execOne(ctx, `
		UPDATE users
		SET email = ?, first_name = ?, last_name = ?, is_staff = ?, is_superuser = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		user.Email, user.FirstName, user.LastName, user.IsStaff, user.IsSuperuser, user.IsActive, user.UpdatedAt, user.ID,
	)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, time.Now().UTC(), id)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.exec(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = ?`, id)
}

func (r *userRepository) List(ctx context.Context, filter domain.UserFilter, params domain.PaginationParams) ([]domain.User, int64, error) {
	params.Validate()

	var w where
	if filter.ExcludeID != uuid.Nil {
		w.add("id <> ?", filter.ExcludeID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(s)
		w.add("(LOWER(username) LIKE ? OR LOWER(email) LIKE ?)", p, p)
	}

	var total int64
	if err := r.get(ctx, &total, `SELECT COUNT(*) FROM users`+w.String(), w.args...); err != nil {
		return nil, 0, err
	}

	var users []domain.User
	args := append(w.args, params.PageSize, params.Offset())
	err := r.sel(ctx, &users, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY username LIMIT ? OFFSET ?`, args...)
	return users, total, err
}

// ListAssignable returns active non-superusers, the only valid task assignees.
func (r *userRepository) ListAssignable(ctx context.Context) ([]domain.UserSummary, error) {
	var users []domain.User
	err := r.sel(ctx, &users, `SELECT `+userColumns+` FROM users WHERE is_superuser = FALSE AND is_active = TRUE ORDER BY username`)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (r *userRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.get(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	return r.execOne(ctx, `
		UPDATE profiles
		SET avatar_key = ?, role = ?, phone = ?, bio = ?,
			notify_email = ?, notify_in_app = ?, notify_sound = ?,
			reminder_email = ?, reminder_in_app = ?, reminder_sound = ?, updated_at = ?
		WHERE user_id = ?`,
		profile.AvatarKey, profile.Role, profile.Phone, profile.Bio,
		profile.NotifyEmail, profile.NotifyInApp, profile.NotifySound,
		profile.ReminderEmail, profile.ReminderInApp, profile.ReminderSound, profile.UpdatedAt,
		profile.UserID,
	)
}

// isUniqueViolation matches a postgres unique_violation or sqlite's UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

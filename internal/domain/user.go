package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsStaff      bool       `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser" db:"is_superuser"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}

// FullName falls back to the username when no names are set.
func (u *User) FullName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName()}
}

type Profile struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AvatarKey     *string   `json:"-" db:"avatar_key"`
	AvatarURL     string    `json:"avatar_url,omitempty" db:"-"`
	Role          string    `json:"role" db:"role"`
	Phone         string    `json:"phone" db:"phone"`
	Bio           string    `json:"bio" db:"bio"`
	NotifyEmail   bool      `json:"notify_email" db:"notify_email"`
	NotifyInApp   bool      `json:"notify_in_app" db:"notify_in_app"`
	NotifySound   bool      `json:"notify_sound" db:"notify_sound"`
	ReminderEmail bool      `json:"reminder_email" db:"reminder_email"`
	ReminderInApp bool      `json:"reminder_in_app" db:"reminder_in_app"`
	ReminderSound bool      `json:"reminder_sound" db:"reminder_sound"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultProfile mirrors the preferences every new account starts with.
func DefaultProfile(userID uuid.UUID) *Profile {
	return &Profile{
		UserID:        userID,
		Role:          "User",
		NotifyEmail:   true,
		NotifyInApp:   true,
		NotifySound:   true,
		ReminderEmail: true,
		ReminderInApp: true,
		ReminderSound: true,
	}
}

type UserSummary struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	FullName string    `json:"full_name" db:"-"`
}

type CreateUserInput struct {
	Username    string `json:"username" validate:"required,max=150"`
	Email       string `json:"email" validate:"omitempty,email"`
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	Password    string `json:"password" validate:"required,min=8"`
	Phone       string `json:"phone" validate:"max=20"`
	Role        string `json:"role" validate:"max=50"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

type UpdateProfileInput struct {
	FirstName     *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName      *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Bio           *string `json:"bio,omitempty"`
	NotifyEmail   *bool   `json:"notify_email,omitempty"`
	NotifyInApp   *bool   `json:"notify_in_app,omitempty"`
	NotifySound   *bool   `json:"notify_sound,omitempty"`
	ReminderEmail *bool   `json:"reminder_email,omitempty"`
	ReminderInApp *bool   `json:"reminder_in_app,omitempty"`
	ReminderSound *bool   `json:"reminder_sound,omitempty"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UserFilter struct {
	Search    string
	ExcludeID uuid.UUID
}

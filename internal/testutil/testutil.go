// Package testutil opens migrated in-memory databases and seeds fixtures for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

const Password = "password123"

// NewDB returns a migrated in-memory sqlite database closed at test cleanup.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := config.NewDB(&config.Config{DatabaseURL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.Migrate(context.Background(), db))
	return db
}

func NewRepositories(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.NewRepositories(NewDB(t))
}

type UserOption func(*domain.User, *domain.Profile)

func Superuser() UserOption {
	return func(u *domain.User, _ *domain.Profile) {
		u.IsSuperuser = true
		u.IsStaff = true
	}
}

func Inactive() UserOption {
	return func(u *domain.User, _ *domain.Profile) {
		u.IsActive = false
	}
}

func WithoutEmails() UserOption {
	return func(_ *domain.User, p *domain.Profile) {
		p.NotifyEmail = false
		p.ReminderEmail = false
	}
}

// CreateUser inserts an active user whose password is Password.
func CreateUser(t *testing.T, repos *repository.Repositories, username string, opts ...UserOption) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    username,
		LastName:     "Tester",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	profile := domain.DefaultProfile(user.ID)
	for _, opt := range opts {
		opt(user, profile)
	}

	require.NoError(t, repos.User.Create(context.Background(), user, profile))
	user.Profile = profile
	return user
}

func Principal(user *domain.User) *domain.Principal {
	return &domain.Principal{
		User:    user,
		Session: &domain.Session{ID: uuid.New(), UserID: user.ID},
	}
}

// CreateTask inserts a pending task created by creator and assigned to assignees.
func CreateTask(t *testing.T, repos *repository.Repositories, title string, creator *domain.User, assignees ...*domain.User) *domain.Task {
	t.Helper()
	ctx := context.Background()

	task := &domain.Task{
		ID:        uuid.New(),
		Title:     title,
		CreatedBy: creator.ID,
	}
	require.NoError(t, repos.Task.Create(ctx, task))

	ids := make([]uuid.UUID, 0, len(assignees))
	for _, a := range assignees {
		ids = append(ids, a.ID)
	}
	require.NoError(t, repos.Task.SetAssignees(ctx, task.ID, ids))

	loaded, err := repos.Task.GetByID(ctx, task.ID)
	require.NoError(t, err)
	return loaded
}

// CreateReminder inserts an untriggered reminder without running the trigger.
func CreateReminder(t *testing.T, repos *repository.Repositories, task *domain.Task, creator *domain.User, fireAt time.Time) *domain.Reminder {
	t.Helper()

	reminder := &domain.Reminder{
		ID:        uuid.New(),
		TaskID:    task.ID,
		Title:     "Follow up",
		FireAt:    fireAt,
		CreatedBy: &creator.ID,
	}
	require.NoError(t, repos.Reminder.Create(context.Background(), reminder))
	return reminder
}

func CreateComplaint(t *testing.T, repos *repository.Repositories, owner *domain.User, subject string) *domain.Complaint {
	t.Helper()

	complaint := &domain.Complaint{
		ID:            uuid.New(),
		UserID:        owner.ID,
		ComplaintType: domain.ComplaintIT,
		Subject:       subject,
		Message:       "Something is broken",
		Status:        domain.ComplaintPending,
	}
	require.NoError(t, repos.Complaint.Create(context.Background(), complaint))
	return complaint
}

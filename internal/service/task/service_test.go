package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/cache"
	"taskdesk/internal/service/email"
	"taskdesk/internal/service/notification"
	"taskdesk/internal/testutil"
)

func newTestService(t *testing.T) (Service, *repository.Repositories) {
	t.Helper()
	repos := testutil.NewRepositories(t)
	emailSvc := email.NewService(&config.Config{Locale: "en"})
	notifier := notification.NewService(repos.Notification, emailSvc, time.UTC)
	return NewService(repos, notifier, emailSvc, nil, cache.New(nil), Options{Locale: "en"}), repos
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("NullDueDateWithAssignee", func(t *testing.T) {
		svc, repos := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")
		bob := testutil.CreateUser(t, repos, "bob")

		task, err := svc.Create(ctx, testutil.Principal(alice), domain.TaskInput{
			Title:      "Prepare onboarding",
			AssignedTo: []uuid.UUID{bob.ID},
			NewTags:    "hr, onboarding, HR",
			Steps:      []domain.TaskStepInput{{Title: "Laptop"}, {Title: "Badge"}},
		})
		require.NoError(t, err)
		assert.Nil(t, task.DueDate)
		assert.False(t, task.IsCompleted)
		require.Len(t, task.AssignedTo, 1)
		assert.Equal(t, bob.ID, task.AssignedTo[0].ID)
		assert.Len(t, task.Tags, 2)
		require.Len(t, task.Steps, 2)
		assert.Equal(t, "Laptop", task.Steps[0].Title)

		notifs, err := repos.Notification.ListByRelated(ctx, bob.ID, domain.CategoryTask, task.ID)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, "You have been assigned a new task: 'Prepare onboarding'", notifs[0].Message)

		pending, err := repos.Outbox.ListPending(ctx, 5, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, bob.Email, pending[0].ToAddress)
	})

	t.Run("EmptyAssigneesRejected", func(t *testing.T) {
		svc, repos := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")

		_, err := svc.Create(ctx, testutil.Principal(alice), domain.TaskInput{Title: "Lonely", AssignedTo: []uuid.UUID{}})
		var ve pkgvalidator.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "assigned_to", ve[0].Field)

		tasks, total, err := repos.Task.List(ctx, domain.TaskFilter{AllUsers: true, Page: domain.FixedPage(1)})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, tasks)
	})

	t.Run("SuperuserAssigneeRejected", func(t *testing.T) {
		svc, repos := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")
		admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())

		_, err := svc.Create(ctx, testutil.Principal(alice), domain.TaskInput{Title: "x", AssignedTo: []uuid.UUID{admin.ID}})
		var ve pkgvalidator.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "assignable", ve[0].Tag)
	})

	t.Run("UnknownTagRejected", func(t *testing.T) {
		svc, repos := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")

		_, err := svc.Create(ctx, testutil.Principal(alice), domain.TaskInput{
			Title: "x", AssignedTo: []uuid.UUID{alice.ID}, TagIDs: []uuid.UUID{uuid.New()},
		})
		var ve pkgvalidator.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "tags", ve[0].Field)
	})
}

func TestUpdateResetsCompletion(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	bob := testutil.CreateUser(t, repos, "bob")
	carol := testutil.CreateUser(t, repos, "carol")
	task := testutil.CreateTask(t, repos, "Budget", alice, bob)

	completed, err := svc.Complete(ctx, testutil.Principal(bob), task.ID)
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted)

	updated, err := svc.Update(ctx, testutil.Principal(bob), task.ID, domain.TaskInput{
		Title:      "Budget v2",
		AssignedTo: []uuid.UUID{bob.ID, carol.ID},
	})
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted)
	assert.Equal(t, "Budget v2", updated.Title)
	assert.Len(t, updated.AssignedTo, 2)

	bobNotifs, err := repos.Notification.ListByRelated(ctx, bob.ID, domain.CategoryTask, task.ID)
	require.NoError(t, err)
	assert.Empty(t, bobNotifs)

	carolNotifs, err := repos.Notification.ListByRelated(ctx, carol.ID, domain.CategoryTask, task.ID)
	require.NoError(t, err)
	assert.Len(t, carolNotifs, 1)

	stored, err := repos.Task.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted)
}

func TestAccess(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	bob := testutil.CreateUser(t, repos, "bob")
	mallory := testutil.CreateUser(t, repos, "mallory")
	admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())
	task := testutil.CreateTask(t, repos, "Private", alice, bob)

	t.Run("OutsiderGetsForbiddenWithoutTask", func(t *testing.T) {
		got, err := svc.GetByID(ctx, testutil.Principal(mallory), task.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, got)
	})

	t.Run("SuperuserReads", func(t *testing.T) {
		got, err := svc.GetByID(ctx, testutil.Principal(admin), task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("MissingTask", func(t *testing.T) {
		_, err := svc.GetByID(ctx, testutil.Principal(alice), uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("OnlyCreatorDeletes", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, testutil.Principal(bob), task.ID), domain.ErrForbidden)
		require.NoError(t, svc.Delete(ctx, testutil.Principal(alice), task.ID))

		_, err := repos.Task.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSteps(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	mallory := testutil.CreateUser(t, repos, "mallory")
	task := testutil.CreateTask(t, repos, "Move office", alice, alice)

	step, err := svc.AddStep(ctx, testutil.Principal(alice), task.ID, domain.TaskStepInput{Title: "Pack", Position: 2})
	require.NoError(t, err)

	done := true
	updated, err := svc.UpdateStep(ctx, testutil.Principal(alice), step.ID, domain.UpdateTaskStepInput{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, "Pack", updated.Title)

	_, err = svc.UpdateStep(ctx, testutil.Principal(mallory), step.ID, domain.UpdateTaskStepInput{IsCompleted: &done})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.DeleteStep(ctx, testutil.Principal(alice), step.ID))
	steps, err := repos.Task.ListSteps(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService(t)
	alice := testutil.CreateUser(t, repos, "alice")
	bob := testutil.CreateUser(t, repos, "bob")

	due := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	_, err := svc.Create(ctx, testutil.Principal(alice), domain.TaskInput{Title: "Dated", DueDate: &due, AssignedTo: []uuid.UUID{bob.ID}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, testutil.Principal(alice), domain.TaskInput{Title: "Undated", AssignedTo: []uuid.UUID{bob.ID}})
	require.NoError(t, err)

	page, err := svc.List(ctx, testutil.Principal(bob), ListInput{StartDate: "2026-05-20", EndDate: "2026-05-20"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalItems)
	assert.Equal(t, "Dated", page.Data[0].Title)

	page, err = svc.List(ctx, testutil.Principal(bob), ListInput{Role: domain.TaskRoleCreatedByMe})
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
	assert.NotNil(t, page.Data)
}

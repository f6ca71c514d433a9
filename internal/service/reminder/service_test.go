package reminder

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

type countingKicker struct {
	kicks atomic.Int32
}

func (k *countingKicker) Kick() { k.kicks.Add(1) }

func newTestService(t *testing.T) (*service, *repository.Repositories, *countingKicker) {
	t.Helper()
	repos := testutil.NewRepositories(t)
	emailSvc := email.NewService(&config.Config{Locale: "en"})
	notifier := notification.NewService(repos.Notification, emailSvc, time.UTC)
	kicker := &countingKicker{}
	svc := NewService(repos, notifier, emailSvc, kicker, cache.New(nil), Options{Locale: "en"}).(*service)
	return svc, repos, kicker
}

func reminderNotifications(t *testing.T, repos *repository.Repositories, task *domain.Task) []domain.Notification {
	t.Helper()
	notifs, err := repos.Notification.ListByRelated(context.Background(), task.CreatedBy, domain.CategoryReminder, task.ID)
	require.NoError(t, err)
	return notifs
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("PastReminderFiresOnce", func(t *testing.T) {
		svc, repos, kicker := newTestService(t)
		admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())
		worker := testutil.CreateUser(t, repos, "worker")
		task := testutil.CreateTask(t, repos, "Quarterly report", admin, worker)

		reminder, err := svc.Create(ctx, testutil.Principal(admin), domain.ReminderInput{
			TaskID: task.ID,
			Title:  "Nudge",
			FireAt: time.Now().Add(-time.Minute),
		})
		require.NoError(t, err)
		assert.True(t, reminder.IsTriggered)
		assert.Equal(t, int32(1), kicker.kicks.Load())

		notifs := reminderNotifications(t, repos, task)
		require.Len(t, notifs, 1)
		assert.Equal(t, "Reminder: 'Quarterly report' is due now!", notifs[0].Message)
		assert.Equal(t, task.ID, *notifs[0].RelatedID)
		assert.True(t, notifs[0].SendEmail)

		due, err := svc.CheckDue(ctx, testutil.Principal(worker))
		require.NoError(t, err)
		assert.False(t, due.HasDue)

		swept, err := svc.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, swept)

		assert.Len(t, reminderNotifications(t, repos, task), 1)

		pending, err := repos.Outbox.ListPending(ctx, 5, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Reminder: Quarterly report", pending[0].Subject)
		assert.Equal(t, admin.Email, pending[0].ToAddress)
	})

	t.Run("PastTimeRejectedForRegularUser", func(t *testing.T) {
		svc, repos, _ := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")
		task := testutil.CreateTask(t, repos, "Docs", alice, alice)

		_, err := svc.Create(ctx, testutil.Principal(alice), domain.ReminderInput{TaskID: task.ID, FireAt: time.Now().Add(-time.Minute)})
		var ve pkgvalidator.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "reminder_time", ve[0].Field)
	})

	t.Run("FutureReminderWaits", func(t *testing.T) {
		svc, repos, kicker := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")
		task := testutil.CreateTask(t, repos, "Docs", alice, alice)

		reminder, err := svc.Create(ctx, testutil.Principal(alice), domain.ReminderInput{TaskID: task.ID, FireAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		assert.False(t, reminder.IsTriggered)
		assert.Empty(t, reminderNotifications(t, repos, task))
		assert.Zero(t, kicker.kicks.Load())
	})

	t.Run("InaccessibleTask", func(t *testing.T) {
		svc, repos, _ := newTestService(t)
		alice := testutil.CreateUser(t, repos, "alice")
		mallory := testutil.CreateUser(t, repos, "mallory")
		task := testutil.CreateTask(t, repos, "Secret", alice, alice)

		_, err := svc.Create(ctx, testutil.Principal(mallory), domain.ReminderInput{TaskID: task.ID, FireAt: time.Now().Add(time.Hour)})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestCheckDue(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestService(t)
	owner := testutil.CreateUser(t, repos, "owner")
	assignee := testutil.CreateUser(t, repos, "assignee")
	task := testutil.CreateTask(t, repos, "Ship release", owner, assignee)
	reminder := testutil.CreateReminder(t, repos, task, owner, time.Now().Add(-time.Minute))

	due, err := svc.CheckDue(ctx, testutil.Principal(assignee))
	require.NoError(t, err)
	require.True(t, due.HasDue)
	require.Len(t, due.Reminders, 1)
	assert.Equal(t, reminder.ID, due.Reminders[0].ID)
	assert.Equal(t, "Follow up", due.Reminders[0].Title)
	assert.Equal(t, "Ship release", due.Reminders[0].Task)

	again, err := svc.CheckDue(ctx, testutil.Principal(owner))
	require.NoError(t, err)
	assert.False(t, again.HasDue)
	assert.Empty(t, again.Reminders)

	notifs := reminderNotifications(t, repos, task)
	require.Len(t, notifs, 1)
	assert.Equal(t, owner.ID, notifs[0].UserID)
}

func TestConcurrentFiringCreatesOneNotification(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestService(t)
	owner := testutil.CreateUser(t, repos, "owner")
	task := testutil.CreateTask(t, repos, "Race", owner, owner)
	testutil.CreateReminder(t, repos, task, owner, time.Now().Add(-time.Minute))

	var (
		wg    sync.WaitGroup
		fired atomic.Int32
	)
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			due, err := svc.CheckDue(ctx, testutil.Principal(owner))
			if assert.NoError(t, err) {
				fired.Add(int32(len(due.Reminders)))
			}
		}()
		go func() {
			defer wg.Done()
			n, err := svc.Sweep(ctx)
			if assert.NoError(t, err) {
				fired.Add(int32(n))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	assert.Len(t, reminderNotifications(t, repos, task), 1)
}

func TestUpdateRetriggers(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestService(t)
	owner := testutil.CreateUser(t, repos, "owner")
	task := testutil.CreateTask(t, repos, "Review", owner, owner)
	reminder := testutil.CreateReminder(t, repos, task, owner, time.Now().Add(30*time.Minute))

	base := time.Now()
	svc.now = func() time.Time { return base.Add(time.Hour) }
	_, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Len(t, reminderNotifications(t, repos, task), 1)

	updated, err := svc.Update(ctx, testutil.Principal(owner), reminder.ID, domain.ReminderInput{
		TaskID: task.ID,
		Title:  "Again",
		FireAt: base.Add(59 * time.Minute),
	})
	require.Error(t, err, "edited time is in the past relative to the clock")
	assert.Nil(t, updated)

	svc.now = time.Now
	updated, err = svc.Update(ctx, testutil.Principal(owner), reminder.ID, domain.ReminderInput{
		TaskID: task.ID,
		Title:  "Again",
		FireAt: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsTriggered)

	svc.now = func() time.Time { return base.Add(3 * time.Hour) }
	due, err := svc.CheckDue(ctx, testutil.Principal(owner))
	require.NoError(t, err)
	assert.True(t, due.HasDue)
	assert.Len(t, reminderNotifications(t, repos, task), 2)
}

func TestAccess(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestService(t)
	owner := testutil.CreateUser(t, repos, "owner")
	assignee := testutil.CreateUser(t, repos, "assignee")
	outsider := testutil.CreateUser(t, repos, "outsider")
	task := testutil.CreateTask(t, repos, "Audit", owner, assignee)
	reminder := testutil.CreateReminder(t, repos, task, owner, time.Now().Add(time.Hour))

	got, err := svc.GetByID(ctx, testutil.Principal(assignee), reminder.ID)
	require.NoError(t, err)
	assert.False(t, got.CanEdit)

	got, err = svc.GetByID(ctx, testutil.Principal(owner), reminder.ID)
	require.NoError(t, err)
	assert.True(t, got.CanEdit)

	_, err = svc.GetByID(ctx, testutil.Principal(outsider), reminder.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.Delete(ctx, testutil.Principal(assignee), reminder.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, testutil.Principal(owner), reminder.ID))
	_, err = svc.GetByID(ctx, testutil.Principal(owner), reminder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := svc.List(ctx, testutil.Principal(assignee), ListInput{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	"taskdesk/internal/testutil"
)

func TestReminderRepository_MarkTriggered(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	owner := testutil.CreateUser(t, repos, "owner")
	task := testutil.CreateTask(t, repos, "Quarterly report", owner, owner)
	reminder := testutil.CreateReminder(t, repos, task, owner, time.Now().Add(-time.Minute))

	t.Run("FirstCallWins", func(t *testing.T) {
		flipped, err := repos.Reminder.MarkTriggered(ctx, reminder.ID, time.Now())
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = repos.Reminder.MarkTriggered(ctx, reminder.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, flipped)

		loaded, err := repos.Reminder.GetByID(ctx, reminder.ID)
		require.NoError(t, err)
		assert.True(t, loaded.IsTriggered)
		assert.Equal(t, "Quarterly report", loaded.TaskTitle)
	})

	t.Run("EditResetsFlag", func(t *testing.T) {
		loaded, err := repos.Reminder.GetByID(ctx, reminder.ID)
		require.NoError(t, err)
		loaded.IsTriggered = false
		require.NoError(t, repos.Reminder.Update(ctx, loaded))

		flipped, err := repos.Reminder.MarkTriggered(ctx, reminder.ID, time.Now())
		require.NoError(t, err)
		assert.True(t, flipped)
	})
}

func TestReminderRepository_ListDueForUser(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	creator := testutil.CreateUser(t, repos, "creator")
	assignee := testutil.CreateUser(t, repos, "assignee")
	outsider := testutil.CreateUser(t, repos, "outsider")
	task := testutil.CreateTask(t, repos, "Ship release", creator, assignee)

	now := time.Now()
	due := testutil.CreateReminder(t, repos, task, creator, now.Add(-time.Minute))
	testutil.CreateReminder(t, repos, task, creator, now.Add(time.Hour))

	for _, tc := range []struct {
		name string
		user *domain.User
		want int
	}{
		{"Creator", creator, 1},
		{"Assignee", assignee, 1},
		{"Outsider", outsider, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reminders, err := repos.Reminder.ListDueForUser(ctx, tc.user.ID, now)
			require.NoError(t, err)
			require.Len(t, reminders, tc.want)
			if tc.want > 0 {
				assert.Equal(t, due.ID, reminders[0].ID)
			}
		})
	}

	t.Run("TriggeredExcluded", func(t *testing.T) {
		_, err := repos.Reminder.MarkTriggered(ctx, due.ID, now)
		require.NoError(t, err)

		reminders, err := repos.Reminder.ListDue(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, reminders)
	})
}

func TestReminderRepository_CascadeOnTaskDelete(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	owner := testutil.CreateUser(t, repos, "owner")
	task := testutil.CreateTask(t, repos, "Temporary", owner, owner)
	reminder := testutil.CreateReminder(t, repos, task, owner, time.Now().Add(time.Hour))

	require.NoError(t, repos.Task.Delete(ctx, task.ID))

	_, err := repos.Reminder.GetByID(ctx, reminder.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

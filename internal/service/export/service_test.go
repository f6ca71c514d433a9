package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
	"taskdesk/internal/testutil"
)

func TestWriteCSV(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	alice := testutil.CreateUser(t, repos, "alice")
	bob := testutil.CreateUser(t, repos, "bob")

	task := testutil.CreateTask(t, repos, "Close books", alice, bob)
	require.NoError(t, repos.Task.SetCompleted(ctx, task.ID, true, time.Now()))
	testutil.CreateComplaint(t, repos, alice, "Cold office")
	testutil.CreateTask(t, repos, "Someone else's", bob, alice)

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	svc := NewService(repos, kolkata)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(ctx, testutil.Principal(alice), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Type", "Title/Subject", "Status", "Date/Time"}, rows[0])

	assert.Equal(t, "Task", rows[1][0])
	assert.Equal(t, "Close books", rows[1][1])
	assert.Equal(t, "Completed", rows[1][2])
	assert.Equal(t, "Complaint", rows[2][0])
	assert.Equal(t, "Pending", rows[2][2])

	_, err = time.ParseInLocation(csvTimeLayout, rows[1][3], kolkata)
	assert.NoError(t, err)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	alice := testutil.CreateUser(t, repos, "alice")
	task := testutil.CreateTask(t, repos, "Plan offsite", alice, alice)
	testutil.CreateReminder(t, repos, task, alice, time.Now().Add(time.Hour))

	history, err := NewService(repos, nil).History(ctx, testutil.Principal(alice))
	require.NoError(t, err)
	assert.Len(t, history.Tasks, 1)
	assert.Empty(t, history.Complaints)
	require.Len(t, history.Reminders, 1)

	entries, err := NewService(repos, nil).Entries(ctx, testutil.Principal(alice))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.HistoryReminder, entries[1].Kind)
	assert.Empty(t, entries[1].Status)
}

func TestEntriesOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	alice := testutil.CreateUser(t, repos, "alice")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := testutil.CreateTask(t, repos, "Older task", alice, alice)
	newer := testutil.CreateTask(t, repos, "Newer task", alice, alice)
	oldComplaint := testutil.CreateComplaint(t, repos, alice, "Older complaint")
	newComplaint := testutil.CreateComplaint(t, repos, alice, "Newer complaint")

	backdate := func(table string, id interface{}, at time.Time) {
		_, err := db.ExecContext(ctx, db.Rebind(`UPDATE `+table+` SET created_at = ? WHERE id = ?`), at, id)
		require.NoError(t, err)
	}
	backdate("tasks", older.ID, base)
	backdate("tasks", newer.ID, base.Add(time.Hour))
	backdate("complaints", oldComplaint.ID, base)
	backdate("complaints", newComplaint.ID, base.Add(time.Hour))

	testutil.CreateReminder(t, repos, older, alice, base.Add(24*time.Hour))
	late := testutil.CreateReminder(t, repos, older, alice, base.Add(48*time.Hour))

	entries, err := NewService(repos, time.UTC).Entries(ctx, testutil.Principal(alice))
	require.NoError(t, err)
	require.Len(t, entries, 6)

	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, string(e.Kind)+":"+e.Title)
	}
	assert.Equal(t, []string{
		"Task:Newer task",
		"Task:Older task",
		"Complaint:Newer complaint",
		"Complaint:Older complaint",
		"Reminder:Follow up",
		"Reminder:Follow up",
	}, titles)
	assert.Equal(t, late.ID, entries[4].ID)
}

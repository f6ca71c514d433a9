package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"taskdesk/internal/domain"
)

func principal(superuser bool) *domain.Principal {
	return &domain.Principal{User: &domain.User{ID: uuid.New(), IsSuperuser: superuser}}
}

func TestTask(t *testing.T) {
	creator := principal(false)
	assignee := principal(false)
	outsider := principal(false)
	admin := principal(true)

	task := &domain.Task{
		ID:         uuid.New(),
		CreatedBy:  creator.ID(),
		AssignedTo: []domain.UserSummary{{ID: assignee.ID()}},
	}

	assert.NoError(t, Task(creator, task))
	assert.NoError(t, Task(assignee, task))
	assert.NoError(t, Task(admin, task))
	assert.ErrorIs(t, Task(outsider, task), domain.ErrForbidden)

	assert.NoError(t, TaskOwner(creator, task))
	assert.ErrorIs(t, TaskOwner(assignee, task), domain.ErrForbidden)
}

func TestComplaint(t *testing.T) {
	owner := principal(false)
	complaint := &domain.Complaint{UserID: owner.ID()}

	assert.NoError(t, Complaint(owner, complaint))
	assert.NoError(t, Complaint(principal(true), complaint))
	assert.ErrorIs(t, Complaint(principal(false), complaint), domain.ErrForbidden)
	assert.ErrorIs(t, Superuser(owner, ResourceComplaint), domain.ErrForbidden)
}

func TestReminder(t *testing.T) {
	creator := principal(false)
	assignee := principal(false)
	id := creator.ID()
	reminder := &domain.Reminder{CreatedBy: &id}
	assignees := []uuid.UUID{assignee.ID()}

	assert.NoError(t, Reminder(creator, reminder, assignees))
	assert.NoError(t, Reminder(assignee, reminder, assignees))
	assert.ErrorIs(t, Reminder(principal(false), reminder, assignees), domain.ErrForbidden)

	assert.True(t, CanEditReminder(creator, reminder))
	assert.False(t, CanEditReminder(assignee, reminder))
	assert.True(t, CanEditReminder(principal(true), reminder))

	orphan := &domain.Reminder{}
	assert.ErrorIs(t, ReminderEdit(creator, orphan), domain.ErrForbidden)
}

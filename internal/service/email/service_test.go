package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/testutil"
)

func TestReminderDue(t *testing.T) {
	svc := NewService(&config.Config{Locale: "en"})
	user := &domain.User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"}

	content, err := svc.ReminderDue(user, "Quarterly report")
	require.NoError(t, err)

	assert.Equal(t, "Reminder: Quarterly report", content.Subject)
	assert.Equal(t, "Hello Jane Doe,\n\nThis is a reminder that your task 'Quarterly report' is due now.\n\nRegards,\nYour Team", content.Text)
	assert.Contains(t, content.HTML, "<p>Hello Jane Doe,</p>")
	assert.Contains(t, content.HTML, "&#39;Quarterly report&#39;")
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService(&config.Config{Locale: "en", Domain: "tasks.example.com"})

	content, err := svc.TaskAssigned(&domain.User{Username: "bob"}, "Alice", "Plan offsite")
	require.NoError(t, err)
	assert.Contains(t, content.HTML, "https://tasks.example.com/")

	require.NoError(t, svc.Enqueue(ctx, repos.Outbox, "", content))
	require.NoError(t, svc.Enqueue(ctx, repos.Outbox, "bob@example.com", content))

	pending, err := repos.Outbox.ListPending(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob@example.com", pending[0].ToAddress)
	assert.Equal(t, "New task assigned: Plan offsite", pending[0].Subject)
}

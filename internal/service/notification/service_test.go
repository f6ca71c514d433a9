package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/mocks"
	"taskdesk/internal/service/email"
	"taskdesk/internal/testutil"
)

func TestPoll(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		svc := NewService(repo, nil, time.UTC)

		latest := &domain.Notification{
			ID:       uuid.New(),
			UserID:   userID,
			Message:  "Reminder: 'Prepare the quarterly financial report for the board' is due now!",
			Category: domain.CategoryReminder,
		}
		repo.On("LatestUnpopped", ctx, userID).Return(latest, nil).Once()
		repo.On("MarkPopped", ctx, latest.ID).Return(true, nil).Once()
		repo.On("CountUnread", ctx, userID).Return(int64(3), nil).Once()

		poll, err := svc.Poll(ctx, userID)
		require.NoError(t, err)
		assert.True(t, poll.HasNew)
		assert.Equal(t, int64(3), poll.Count)
		assert.Equal(t, latest.Message, poll.Message)
		assert.Len(t, []rune(poll.Title), domain.PollTitleLength)
		assert.Equal(t, domain.CategoryReminder, poll.Category)
		repo.AssertExpectations(t)
	})

	t.Run("NothingNew", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		svc := NewService(repo, nil, time.UTC)
		repo.On("LatestUnpopped", ctx, userID).Return(nil, domain.ErrNotFound).Once()

		poll, err := svc.Poll(ctx, userID)
		require.NoError(t, err)
		assert.False(t, poll.HasNew)
		repo.AssertExpectations(t)
	})

	t.Run("LostRace", func(t *testing.T) {
		repo := new(mocks.NotificationRepository)
		svc := NewService(repo, nil, time.UTC)
		latest := &domain.Notification{ID: uuid.New(), UserID: userID, Message: "m"}
		repo.On("LatestUnpopped", ctx, userID).Return(latest, nil).Once()
		repo.On("MarkPopped", ctx, latest.ID).Return(false, nil).Once()

		poll, err := svc.Poll(ctx, userID)
		require.NoError(t, err)
		assert.False(t, poll.HasNew)
		repo.AssertNotCalled(t, "CountUnread", mock.Anything, mock.Anything)
	})
}

func TestPollTwiceAgainstStore(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	alice := testutil.CreateUser(t, repos, "alice")
	svc := NewService(repos.Notification, email.NewService(&config.Config{Locale: "en"}), time.UTC)

	_, err := svc.Notify(ctx, repos, Notice{UserID: alice.ID, Category: domain.CategorySystem, Message: "Welcome"})
	require.NoError(t, err)

	first, err := svc.Poll(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, first.HasNew)
	assert.Equal(t, int64(1), first.Count)

	second, err := svc.Poll(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, second.HasNew)
}

func TestMarkAllAsReadTwice(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	alice := testutil.CreateUser(t, repos, "alice")
	svc := NewService(repos.Notification, email.NewService(&config.Config{}), time.UTC)

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, repos, Notice{UserID: alice.ID, Category: domain.CategoryTask, Message: "x"})
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.MarkAllAsRead(ctx, alice.ID))
		page, err := svc.List(ctx, alice.ID, ListInput{Status: domain.ReadStatusAll})
		require.NoError(t, err)
		assert.Zero(t, page.UnreadCount)
		assert.Equal(t, int64(3), page.TotalItems)
	}
}

func TestNotifyEmailPreferences(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	wants := testutil.CreateUser(t, repos, "wants")
	muted := testutil.CreateUser(t, repos, "muted", testutil.WithoutEmails())
	svc := NewService(repos.Notification, email.NewService(&config.Config{Locale: "en"}), time.UTC)

	render := func(u *domain.User) (email.Content, error) {
		return email.Content{Subject: "Reminder: Report", Text: "Hello " + u.FullName()}, nil
	}

	n, err := svc.Notify(ctx, repos, Notice{UserID: wants.ID, Category: domain.CategoryReminder, Message: "due", Email: render})
	require.NoError(t, err)
	assert.True(t, n.SendEmail)

	n, err = svc.Notify(ctx, repos, Notice{UserID: muted.ID, Category: domain.CategoryReminder, Message: "due", Email: render})
	require.NoError(t, err)
	assert.False(t, n.SendEmail)

	pending, err := repos.Outbox.ListPending(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, wants.Email, pending[0].ToAddress)
}

func TestListValidatesDates(t *testing.T) {
	repo := new(mocks.NotificationRepository)
	svc := NewService(repo, nil, time.UTC)

	_, err := svc.List(context.Background(), uuid.New(), ListInput{StartDate: "yesterday"})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

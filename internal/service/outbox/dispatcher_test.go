package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	"taskdesk/internal/mocks"
	"taskdesk/internal/pkg/mail"
	"taskdesk/internal/testutil"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repos := testutil.NewRepositories(t)
		sender := new(mocks.Sender)
		email := &domain.OutboxEmail{ToAddress: "alice@example.com", Subject: "Reminder: Report", TextBody: "Hello"}
		require.NoError(t, repos.Outbox.Enqueue(ctx, email))

		sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
			return msg.Subject == "Reminder: Report" && msg.To[0] == "alice@example.com" && msg.From == "noreply@example.com"
		})).Return(nil).Once()

		d := NewDispatcher(repos.Outbox, sender, Options{From: "noreply@example.com", MaxAttempts: 3})
		sent, err := d.Dispatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		loaded, err := repos.Outbox.GetByID(ctx, email.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutboxSent, loaded.Status)
		sender.AssertExpectations(t)
	})

	t.Run("FailureIsRecordedUntilMaxAttempts", func(t *testing.T) {
		repos := testutil.NewRepositories(t)
		sender := new(mocks.Sender)
		email := &domain.OutboxEmail{ToAddress: "bob@example.com", Subject: "Hi"}
		require.NoError(t, repos.Outbox.Enqueue(ctx, email))

		sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Twice()

		d := NewDispatcher(repos.Outbox, sender, Options{MaxAttempts: 2})
		for i := 0; i < 2; i++ {
			sent, err := d.Dispatch(ctx)
			assert.Error(t, err)
			assert.Zero(t, sent)
		}

		sent, err := d.Dispatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)

		loaded, err := repos.Outbox.GetByID(ctx, email.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutboxFailed, loaded.Status)
		assert.Equal(t, 2, loaded.Attempts)
		sender.AssertExpectations(t)
	})

	t.Run("OneFailureDoesNotStopBatch", func(t *testing.T) {
		repos := testutil.NewRepositories(t)
		sender := new(mocks.Sender)
		require.NoError(t, repos.Outbox.Enqueue(ctx, &domain.OutboxEmail{ToAddress: "bad@example.com", Subject: "a"}))
		require.NoError(t, repos.Outbox.Enqueue(ctx, &domain.OutboxEmail{ToAddress: "good@example.com", Subject: "b"}))

		sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool { return msg.To[0] == "bad@example.com" })).
			Return(errors.New("mailbox unavailable")).Once()
		sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool { return msg.To[0] == "good@example.com" })).
			Return(nil).Once()

		d := NewDispatcher(repos.Outbox, sender, Options{MaxAttempts: 5})
		sent, err := d.Dispatch(ctx)
		assert.Error(t, err)
		assert.Equal(t, 1, sent)
		sender.AssertExpectations(t)
	})
}

type slowSender struct {
	delay time.Duration
	sends atomic.Int32
}

func (s *slowSender) Send(ctx context.Context, _ mail.Message) error {
	s.sends.Add(1)
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestConcurrentDispatchSendsOnce(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	email := &domain.OutboxEmail{ToAddress: "alice@example.com", Subject: "Reminder: Report"}
	require.NoError(t, repos.Outbox.Enqueue(ctx, email))

	sender := &slowSender{delay: 50 * time.Millisecond}
	d := NewDispatcher(repos.Outbox, sender, Options{MaxAttempts: 3})

	var (
		wg    sync.WaitGroup
		total atomic.Int32
		errs  = make(chan error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sent, err := d.Dispatch(ctx)
			total.Add(int32(sent))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), sender.sends.Load())
	assert.Equal(t, int32(1), total.Load())

	loaded, err := repos.Outbox.GetByID(ctx, email.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutboxSent, loaded.Status)
	assert.Equal(t, 1, loaded.Attempts)
}

func TestDispatchRetriesStaleClaim(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	email := &domain.OutboxEmail{ToAddress: "bob@example.com", Subject: "Hi"}
	require.NoError(t, repos.Outbox.Enqueue(ctx, email))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	claimed, err := repos.Outbox.Claim(ctx, email.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, claimed)

	sender := new(mocks.Sender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	d := NewDispatcher(repos.Outbox, sender, Options{ClaimTimeout: 10 * time.Minute})
	d.now = func() time.Time { return now }
	sent, err := d.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	sender.AssertExpectations(t)
}

func TestKickNeverBlocks(t *testing.T) {
	d := NewDispatcher(nil, nil, Options{})
	d.Kick()
	d.Kick()
	assert.Len(t, d.kick, 1)
}

package user

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	"taskdesk/internal/mocks"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/testutil"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService(repos, nil)

	created, err := svc.Create(ctx, domain.CreateUserInput{
		Username:    "jdoe",
		Email:       "jdoe@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Password:    "changeme123",
		Role:        "Manager",
		IsSuperuser: true,
	})
	require.NoError(t, err)
	assert.True(t, created.IsStaff)

	profile, err := repos.User.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Manager", profile.Role)
	assert.True(t, profile.ReminderEmail)

	_, err = svc.Create(ctx, domain.CreateUserInput{Username: "jdoe", Password: "changeme123"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Create(ctx, domain.CreateUserInput{Username: "short", Password: "abc"})
	var ve pkgvalidator.ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve[0].Field)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService(repos, nil)
	alice := testutil.CreateUser(t, repos, "alice")

	off := false
	first := "Alice"
	phone := "555-0100"
	updated, err := svc.UpdateProfile(ctx, testutil.Principal(alice), domain.UpdateProfileInput{
		FirstName:     &first,
		Phone:         &phone,
		ReminderEmail: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "Tester", updated.LastName)
	assert.Equal(t, "555-0100", updated.Profile.Phone)
	assert.False(t, updated.Profile.ReminderEmail)
	assert.True(t, updated.Profile.NotifyEmail)

	bad := "not-an-email"
	_, err = svc.UpdateProfile(ctx, testutil.Principal(alice), domain.UpdateProfileInput{Email: &bad})
	var ve pkgvalidator.ValidationErrors
	require.ErrorAs(t, err, &ve)
}

func TestSetAvatar(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	alice := testutil.CreateUser(t, repos, "alice")

	t.Run("NoStorage", func(t *testing.T) {
		_, err := NewService(repos, nil).SetAvatar(ctx, alice.ID, attachment.File{})
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("Stored", func(t *testing.T) {
		store := new(mocks.ObjectStore)
		key := "avatars/" + alice.ID.String()
		store.On("Put", mock.Anything, key, mock.Anything, int64(3), "image/png").Return(nil)
		store.On("URL", mock.Anything, key).Return("https://files.example.com/"+key, nil)

		file := attachment.File{
			Upload: domain.Upload{FileName: "me.png", Size: 3, ContentType: "image/png"},
			Reader: bytes.NewReader([]byte("png")),
		}
		user, err := NewService(repos, store).SetAvatar(ctx, alice.ID, file)
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/"+key, user.Profile.AvatarURL)
		store.AssertExpectations(t)
	})

	t.Run("TooLarge", func(t *testing.T) {
		store := new(mocks.ObjectStore)
		file := attachment.File{Upload: domain.Upload{Size: domain.MaxAttachmentSize + 1}}
		_, err := NewService(repos, store).SetAvatar(ctx, alice.ID, file)
		assert.ErrorIs(t, err, domain.ErrFileTooLarge)
		store.AssertNotCalled(t, "Put")
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	svc := NewService(repos, nil)
	admin := testutil.CreateUser(t, repos, "admin", testutil.Superuser())
	alice := testutil.CreateUser(t, repos, "alice")
	testutil.CreateUser(t, repos, "bob")

	_, err := svc.List(ctx, testutil.Principal(alice), "", 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	page, err := svc.List(ctx, testutil.Principal(admin), "", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)

	page, err = svc.List(ctx, testutil.Principal(admin), "ali", 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "alice", page.Data[0].Username)

	assignable, err := svc.ListAssignable(ctx)
	require.NoError(t, err)
	assert.Len(t, assignable, 2)
}

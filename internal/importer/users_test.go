package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/mocks"
	"taskdesk/internal/service/storage"
	"taskdesk/internal/service/user"
	"taskdesk/internal/testutil"
)

const staffCSV = `Full Name,First Name,Last Name,Login ID,Password,Email Address,Phone No.,Role
Asha Rao,Asha,Rao,asha,,asha@example.com,98450 00001,Admin
Vikram Das,Vikram,Das,vikram,secret-pass,vikram@example.com,,User
No Login,No,Login,,,nologin@example.com,,User
Asha Again,Asha,Rao,asha,,asha2@example.com,,User
Short Pass,Short,Pass,shorty,abc,short@example.com,,User
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vikram.jpg"), []byte("jpeg"), 0o644))

	store := new(mocks.ObjectStore)
	store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/")
	}), mock.Anything, int64(4), "image/jpeg").Return(nil).Once()
	store.On("URL", mock.Anything, mock.Anything).Return("https://files.example.com/avatar", nil)

	result, err := NewUserImporter(user.NewService(repos, store), dir).Import(ctx, strings.NewReader(staffCSV))
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 5, Created: 2, Skipped: 2, Failed: 1}, result)

	asha, err := repos.User.GetByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, asha.IsSuperuser)
	assert.True(t, asha.IsStaff)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(asha.PasswordHash), []byte(DefaultPassword)))

	vikram, err := repos.User.GetByUsername(ctx, "vikram")
	require.NoError(t, err)
	assert.False(t, vikram.IsSuperuser)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(vikram.PasswordHash), []byte("secret-pass")))

	profile, err := repos.User.GetProfile(ctx, vikram.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.AvatarKey)
	assert.Equal(t, storage.AvatarKey(vikram.ID), *profile.AvatarKey)

	store.AssertExpectations(t)
}

func TestImportRequiresLoginColumn(t *testing.T) {
	repos := testutil.NewRepositories(t)
	_, err := NewUserImporter(user.NewService(repos, nil), "").Import(context.Background(), strings.NewReader("Name,Email\nx,y\n"))
	assert.Error(t, err)
}

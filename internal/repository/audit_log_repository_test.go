package repository_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	"taskdesk/internal/testutil"
)

func TestAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepositories(t)
	root := testutil.CreateUser(t, repos, "root", testutil.Superuser())
	entityID := uuid.New()

	created := &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     &root.ID,
		Action:     domain.AuditLoginAs,
		EntityType: "user",
		EntityID:   entityID,
		NewValue:   domain.JSONText(`{"a":1}`),
	}
	require.NoError(t, repos.AuditLog.Create(ctx, created))

	t.Run("ListWithNullOldValue", func(t *testing.T) {
		logs, total, err := repos.AuditLog.List(ctx, domain.FixedPage(1))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, logs, 1)
		assert.Nil(t, logs[0].OldValue)
		assert.JSONEq(t, `{"a":1}`, string(logs[0].NewValue))
		require.NotNil(t, logs[0].Username)
		assert.Equal(t, "root", *logs[0].Username)
	})

	t.Run("ListByEntity", func(t *testing.T) {
		logs, err := repos.AuditLog.ListByEntity(ctx, "user", entityID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, created.ID, logs[0].ID)

		raw, err := json.Marshal(logs[0])
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"new_value":{"a":1}`)
		assert.NotContains(t, string(raw), "old_value")

		logs, err = repos.AuditLog.ListByEntity(ctx, "user", uuid.New())
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain"
	"taskdesk/internal/mocks"
)

func TestLog(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.AuditLogRepository)
	svc := NewService(repo)

	adminID := uuid.New()
	targetID := uuid.New()
	ip := "10.0.0.1"

	repo.On("Create", ctx, mock.MatchedBy(func(log *domain.AuditLog) bool {
		return log.Action == domain.AuditLoginAs &&
			*log.UserID == adminID &&
			log.EntityID == targetID &&
			string(log.NewValue) == `{"target":"bob"}` &&
			log.OldValue == nil &&
			*log.IPAddress == ip
	})).Return(nil).Once()

	err := svc.Log(ctx, domain.CreateAuditLogInput{
		UserID:     adminID,
		Action:     domain.AuditLoginAs,
		EntityType: "user",
		EntityID:   targetID,
		NewValue:   map[string]string{"target": "bob"},
		Client:     domain.ClientInfo{IPAddress: &ip},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.AuditLogRepository)
	svc := NewService(repo)

	logs := []domain.AuditLog{{ID: uuid.New(), Action: domain.AuditDelete}}
	repo.On("List", ctx, domain.PaginationParams{Page: 1, PageSize: 10}).Return(logs, int64(1), nil).Once()

	page, err := svc.List(ctx, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalItems)
	assert.Len(t, page.Data, 1)
	repo.AssertExpectations(t)
}

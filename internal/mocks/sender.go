package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"taskdesk/internal/pkg/mail"
)

type Sender struct {
	mock.Mock
}

func (m *Sender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

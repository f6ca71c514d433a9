package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/config"
	"taskdesk/internal/testutil"
)

func TestNewMailSender(t *testing.T) {
	sender, err := NewMailSender(&config.Config{MailProvider: "log"})
	require.NoError(t, err)
	assert.NotNil(t, sender)

	_, err = NewMailSender(&config.Config{MailProvider: "resend"})
	assert.Error(t, err)

	_, err = NewMailSender(&config.Config{MailProvider: "smtp", SMTPPort: 587})
	assert.Error(t, err)

	_, err = NewMailSender(&config.Config{MailProvider: "pigeon"})
	assert.Error(t, err)
}

func TestNewServicesWithoutOptionalBackends(t *testing.T) {
	repos := testutil.NewRepositories(t)
	sender, err := NewMailSender(&config.Config{})
	require.NoError(t, err)

	services := NewServices(repos, nil, nil, sender, &config.Config{Timezone: "UTC", Locale: "en"})
	assert.NotNil(t, services.Reminder)
	assert.NotNil(t, services.Outbox)
	assert.NotNil(t, services.Dashboard)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(newViper())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, "log", cfg.MailProvider)
	assert.Equal(t, 5, cfg.OutboxMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestFromViperEnvironment(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "SMTP")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("ALLOWED_HOSTS", "a.example.com, b.example.com,,")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SCHEDULER_ENABLED", "true")

	cfg := FromViper(newViper())

	assert.Equal(t, "smtp", cfg.MailProvider)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.AllowedHosts)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SchedulerEnabled)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Kolkata"}
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())

	cfg.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		raw    string
		driver string
		dsn    string
		err    bool
	}{
		{raw: "postgres://u:p@localhost/db", driver: "postgres", dsn: "postgres://u:p@localhost/db"},
		{raw: "sqlite://data/app.db", driver: "sqlite", dsn: "data/app.db?_time_format=sqlite&_pragma=foreign_keys(1)"},
		{raw: ":memory:", driver: "sqlite", dsn: ":memory:?_time_format=sqlite&_pragma=foreign_keys(1)"},
		{raw: "", err: true},
		{raw: "mysql://localhost", err: true},
	}

	for _, tt := range tests {
		driver, dsn, err := ParseDatabaseURL(tt.raw)
		if tt.err {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.driver, driver)
		assert.Equal(t, tt.dsn, dsn)
	}
}

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(&Config{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}

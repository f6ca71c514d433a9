package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Debug       bool
	LogLevel    string

	SecretKey    string
	AllowedHosts []string
	CORSOrigins  string

	DatabaseURL string

	RedisURL string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	MailProvider string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool
	FromEmail    string
	Domain       string

	Timezone string
	Locale   string

	SessionTTL time.Duration

	SchedulerEnabled       bool
	ReminderSweepSchedule  string
	OutboxSchedule         string
	OutboxBatchSize        int
	OutboxMaxAttempts      int
	SessionCleanupSchedule string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("ALLOWED_HOSTS", "*")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("DATABASE_URL", "sqlite://taskdesk.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "taskdesk-media")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MAIL_PROVIDER", "log")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_USE_TLS", false)
	v.SetDefault("FROM_EMAIL", "noreply@example.com")
	v.SetDefault("DOMAIN", "localhost:8080")
	v.SetDefault("TIMEZONE", "Asia/Kolkata")
	v.SetDefault("LOCALE", "en")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("REMINDER_SWEEP_SCHEDULE", "@every 1m")
	v.SetDefault("OUTBOX_SCHEDULE", "@every 30s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)
	v.SetDefault("SESSION_CLEANUP_SCHEDULE", "@hourly")
}

// Load reads an optional .env file, then the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		Debug:       v.GetBool("DEBUG"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		SecretKey:    v.GetString("SECRET_KEY"),
		AllowedHosts: splitList(v.GetString("ALLOWED_HOSTS")),
		CORSOrigins:  v.GetString("CORS_ORIGINS"),

		DatabaseURL: v.GetString("DATABASE_URL"),

		RedisURL: v.GetString("REDIS_URL"),

		MinIOEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinIOAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinIOSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinIOBucket:    v.GetString("MINIO_BUCKET"),
		MinIOUseSSL:    v.GetBool("MINIO_USE_SSL"),

		MailProvider: strings.ToLower(v.GetString("MAIL_PROVIDER")),
		ResendAPIKey: v.GetString("RESEND_API_KEY"),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPUseTLS:   v.GetBool("SMTP_USE_TLS"),
		FromEmail:    v.GetString("FROM_EMAIL"),
		Domain:       v.GetString("DOMAIN"),

		Timezone: v.GetString("TIMEZONE"),
		Locale:   v.GetString("LOCALE"),

		SessionTTL: v.GetDuration("SESSION_TTL"),

		SchedulerEnabled:       v.GetBool("SCHEDULER_ENABLED"),
		ReminderSweepSchedule:  v.GetString("REMINDER_SWEEP_SCHEDULE"),
		OutboxSchedule:         v.GetString("OUTBOX_SCHEDULE"),
		OutboxBatchSize:        v.GetInt("OUTBOX_BATCH_SIZE"),
		OutboxMaxAttempts:      v.GetInt("OUTBOX_MAX_ATTEMPTS"),
		SessionCleanupSchedule: v.GetString("SESSION_CLEANUP_SCHEDULE"),
	}
}

// Location resolves TIMEZONE, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

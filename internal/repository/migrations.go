package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version int
	sql     string
}

// Schema statements use {{TS}} for timestamp columns, rendered per driver.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL DEFAULT '',
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	is_staff      BOOLEAN NOT NULL DEFAULT FALSE,
	is_superuser  BOOLEAN NOT NULL DEFAULT FALSE,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	last_login_at {{TS}},
	created_at    {{TS}} NOT NULL,
	updated_at    {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id         TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	avatar_key      TEXT,
	role            TEXT NOT NULL DEFAULT 'User',
	phone           TEXT NOT NULL DEFAULT '',
	bio             TEXT NOT NULL DEFAULT '',
	notify_email    BOOLEAN NOT NULL DEFAULT TRUE,
	notify_in_app   BOOLEAN NOT NULL DEFAULT TRUE,
	notify_sound    BOOLEAN NOT NULL DEFAULT TRUE,
	reminder_email  BOOLEAN NOT NULL DEFAULT TRUE,
	reminder_in_app BOOLEAN NOT NULL DEFAULT TRUE,
	reminder_sound  BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at      {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	origin_user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
	token_hash     TEXT NOT NULL UNIQUE,
	ip_address     TEXT,
	user_agent     TEXT,
	expires_at     {{TS}} NOT NULL,
	created_at     {{TS}} NOT NULL,
	revoked_at     {{TS}}
);

CREATE TABLE IF NOT EXISTS tags (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT,
	color       TEXT NOT NULL DEFAULT '#FFFFFF',
	created_at  {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	due_date     {{TS}},
	created_by   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   {{TS}} NOT NULL,
	updated_at   {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS task_assignees (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS task_tags (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, tag_id)
);

CREATE TABLE IF NOT EXISTS task_steps (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	title        TEXT NOT NULL,
	assigned_to  TEXT REFERENCES users(id) ON DELETE SET NULL,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	position     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS reminders (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	title        TEXT NOT NULL DEFAULT '',
	fire_at      {{TS}} NOT NULL,
	created_by   TEXT REFERENCES users(id) ON DELETE SET NULL,
	is_triggered BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   {{TS}} NOT NULL,
	updated_at   {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS complaints (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	complaint_type TEXT NOT NULL DEFAULT 'Other',
	subject        TEXT NOT NULL,
	message        TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'Pending',
	created_at     {{TS}} NOT NULL,
	updated_at     {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS complaint_tags (
	complaint_id TEXT NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
	tag_id       TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (complaint_id, tag_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	message    TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'system',
	related_id TEXT,
	send_email BOOLEAN NOT NULL DEFAULT FALSE,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	is_popped  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	task_id      TEXT REFERENCES tasks(id) ON DELETE CASCADE,
	complaint_id TEXT REFERENCES complaints(id) ON DELETE CASCADE,
	parent_id    TEXT REFERENCES comments(id) ON DELETE CASCADE,
	content      TEXT NOT NULL,
	created_at   {{TS}} NOT NULL,
	CHECK ((task_id IS NULL) <> (complaint_id IS NULL))
);

CREATE TABLE IF NOT EXISTS attachments (
	id           TEXT PRIMARY KEY,
	task_id      TEXT REFERENCES tasks(id) ON DELETE CASCADE,
	complaint_id TEXT REFERENCES complaints(id) ON DELETE CASCADE,
	uploaded_by  TEXT REFERENCES users(id) ON DELETE SET NULL,
	file_name    TEXT NOT NULL,
	file_size    BIGINT NOT NULL DEFAULT 0,
	mime_type    TEXT NOT NULL DEFAULT '',
	storage_key  TEXT NOT NULL,
	uploaded_at  {{TS}} NOT NULL,
	CHECK ((task_id IS NULL) <> (complaint_id IS NULL))
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          TEXT PRIMARY KEY,
	user_id     TEXT REFERENCES users(id) ON DELETE SET NULL,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	old_value   TEXT,
	new_value   TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  {{TS}} NOT NULL
);

CREATE TABLE IF NOT EXISTS email_outbox (
	id         TEXT PRIMARY KEY,
	to_address TEXT NOT NULL,
	subject    TEXT NOT NULL,
	text_body  TEXT NOT NULL DEFAULT '',
	html_body  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending',
	attempts   INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	created_at {{TS}} NOT NULL,
	claimed_at {{TS}},
	sent_at    {{TS}}
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks(created_by);
CREATE INDEX IF NOT EXISTS idx_task_assignees_user ON task_assignees(user_id);
CREATE INDEX IF NOT EXISTS idx_task_steps_task ON task_steps(task_id, position);
CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(is_triggered, fire_at);
CREATE INDEX IF NOT EXISTS idx_complaints_user ON complaints(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read, created_at);
CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_id);
CREATE INDEX IF NOT EXISTS idx_comments_complaint ON comments(complaint_id);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_email_outbox_status ON email_outbox(status, created_at);
`,
	},
}

func renderMigration(driver, sql string) string {
	ts := "TIMESTAMP"
	if driver == "postgres" {
		ts = "TIMESTAMPTZ"
	}
	return strings.ReplaceAll(sql, "{{TS}}", ts)
}

// Migrate applies every migration newer than the recorded schema version.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version: %w", err)
	}

	var current int
	if err := db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, renderMigration(db.DriverName(), m.sql)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

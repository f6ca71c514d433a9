package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	assert.Equal(t, "Reminder: 'Report' is due now!", Format("en", "reminder.notification", "Report"))
	assert.Equal(t, "Reminder: Report", Format("en", "reminder.email.subject", "Report"))
	assert.Equal(t,
		"Hello Jane Doe,\n\nThis is a reminder that your task 'Report' is due now.\n\nRegards,\nYour Team",
		Format("en", "reminder.email.body", "Jane Doe", "Report"),
	)
}

func TestTranslateFallback(t *testing.T) {
	assert.Equal(t, "Pengingat: %s", Translate("id", "reminder.email.subject"))
	// missing in id, falls back to en
	assert.Equal(t, Translate("en", "reminder.email.body"), Translate("id", "reminder.email.body"))
	assert.Equal(t, Translate("en", "task.assigned.notification"), Translate("fr", "task.assigned.notification"))
	assert.Equal(t, "unknown.key", Translate("en", "unknown.key"))
}

func TestLoadTranslationsOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "xx"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xx", "messages.yaml"),
		[]byte("MESSAGES:\n  reminder.email.subject: \"XX %s\"\n"), 0o644))

	require.NoError(t, LoadTranslations(dir))
	assert.Equal(t, "XX Report", Format("xx", "reminder.email.subject", "Report"))
	assert.Equal(t, "Reminder: Report", Format("en", "reminder.email.subject", "Report"))
}

func TestLoadTranslationsRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "yy"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yy", "messages.yaml"), []byte("MESSAGES: [unclosed"), 0o644))

	assert.Error(t, LoadTranslations(dir))
}

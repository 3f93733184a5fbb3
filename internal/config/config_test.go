package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_APP_DATABASE", "relations")
	t.Setenv("DB_APP_USER", "app")
	t.Setenv("AUTHZ_URL", "http://authorizer:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "relations", cfg.DBAppDatabase)
	assert.Equal(t, "member", cfg.ChannelAddPolicy)
	assert.Equal(t, 32, cfg.NameMaxLength)
	assert.Equal(t, 2000, cfg.MessageMaxLength)
	assert.Equal(t, "warn", cfg.DBLogLevel)
}

func TestLoadRequiresDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_APP_DATABASE", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_APP_DATABASE")
}

func TestLoadSqliteNeedsNoUser(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_APP_USER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsEmbedded())
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	setRequired(t)
	t.Setenv("CHANNEL_ADD_POLICY", "anyone")

	_, err := Load()
	assert.ErrorContains(t, err, "CHANNEL_ADD_POLICY")
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("NAME_MAX_LENGTH", "not-a-number")
	assert.Equal(t, 32, getEnvAsInt("NAME_MAX_LENGTH", 32))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RELATIONSDB_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RELATIONSDB_TEST_VALUE") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("RELATIONSDB_TEST_VALUE"))

	assert.NoError(t, LoadEnvFile(""))
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

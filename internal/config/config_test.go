package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const testYAML = `
server:
  port: 8080
auth:
  session_secret: file-secret
  allow_registration: false
`

func TestLoad_FileValues(t *testing.T) {
	cfg, err := load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Auth.SessionSecret)
	assert.False(t, cfg.Auth.AllowRegistration)

	// defaults fill the keys the file omits
	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, "data/homebook.db", cfg.Database.Path)
	assert.Equal(t, 24, cfg.Auth.SessionTTLHours)
	assert.Equal(t, "EUR", cfg.App.DefaultCurrency)
}

func TestLoad_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("HB_SERVER_PORT", "9000")
	t.Setenv("HB_AUTH_ALLOW_REGISTRATION", "true")
	t.Setenv("HB_APP_DEFAULT_CURRENCY", "PLN")

	cfg, err := load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Auth.AllowRegistration)
	assert.Equal(t, "PLN", cfg.App.DefaultCurrency)

	// file values without an override stay
	assert.Equal(t, "file-secret", cfg.Auth.SessionSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curius/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := writeConfig(t, `
api_url = "https://curius.example/api"
user = "ada"
limit = 50
attribution = false
log_level = "debug"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://curius.example/api", cfg.ApiUrl)
	assert.Equal(t, "ada", cfg.User)
	assert.Equal(t, 50, cfg.Limit)
	assert.False(t, cfg.Attribution)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := writeConfig(t, `user = "ada"`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ada", cfg.User)
	assert.Equal(t, 20, cfg.Limit)
	assert.True(t, cfg.Attribution)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigMissingFileIsDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigRejectsBadToml(t *testing.T) {
	path := writeConfig(t, `user = [unclosed`)

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing config file")
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nongsanviet/shopcli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAPIURL, config.EnvAPIToken, config.EnvUserID, config.EnvHTTPTimeout,
		config.EnvLogLevel, config.EnvLogFormat, config.EnvPageSize, config.EnvTokenFile,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, "", cfg.APIToken)
	assert.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 12, cfg.PageSize)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvAPIURL, "https://api.nongsan.vn/")
	t.Setenv(config.EnvAPIToken, "  tok  ")
	t.Setenv(config.EnvUserID, "u1")
	t.Setenv(config.EnvHTTPTimeout, "15s")
	t.Setenv(config.EnvLogFormat, "json")
	t.Setenv(config.EnvPageSize, "30")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.nongsan.vn", cfg.APIURL)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, "u1", cfg.UserID)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30, cfg.PageSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{config.EnvAPIURL, "not a url"},
		{config.EnvHTTPTimeout, "soon"},
		{config.EnvHTTPTimeout, "-1s"},
		{config.EnvPageSize, "-2"},
		{config.EnvLogFormat, "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvUserID, "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHOPCLI_USER_ID=from-file\nSHOPCLI_PAGE_SIZE=24\n"), 0o600))

	config.LoadDotEnv(path)
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvPageSize) })

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.UserID)
	assert.Equal(t, 24, cfg.PageSize)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NotPanics(t, func() {
		config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	})
}

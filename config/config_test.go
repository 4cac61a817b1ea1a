package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileValues(t *testing.T) {
	// Tests run inside config/, so config.yaml is picked up from ".".
	t.Setenv("SOPDESK_DATABASE_DSN", "")
	require.NoError(t, LoadConfig())

	assert.Equal(t, "8080", AppConfig.Server.Port)
	assert.Equal(t, "sqlite", AppConfig.Database.Driver)
	assert.Equal(t, 10*time.Second, AppConfig.Server.ShutdownTimeout)
	assert.True(t, AppConfig.Metrics.Enabled)
	assert.Equal(t, []string{"*"}, AppConfig.CORS.AllowOrigins)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SOPDESK_SERVER_PORT", "9191")
	t.Setenv("SOPDESK_DATABASE_DSN", "memory")
	t.Setenv("SOPDESK_CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")

	require.NoError(t, LoadConfig())

	assert.Equal(t, "9191", AppConfig.Server.Port)
	assert.Equal(t, "memory", AppConfig.Database.DSN)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, AppConfig.CORS.AllowOrigins)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("SOPDESK_DATABASE_DRIVER", "oracle")

	err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestLoadConfig_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("SOPDESK_DATABASE_DRIVER", "postgres")
	t.Setenv("SOPDESK_DATABASE_DSN", "memory")

	err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn is required")
}

package config_test

import (
	"testing"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ModeDebug, cfg.Mode)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiryPeriod)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AGILETRACK_DB_DRIVER", "sqlite")
	t.Setenv("AGILETRACK_DB_PATH", "/tmp/at.db")
	t.Setenv("AGILETRACK_JWT_SECRET", "s3cret")
	t.Setenv("AGILETRACK_SERVER_PORT", "9090")
	t.Setenv("AGILETRACK_LOG_LEVEL", "debug")
	t.Setenv("AGILETRACK_CACHE_TTL", "30s")
	t.Setenv("AGILETRACK_REDIS_ADDR", "localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/at.db", cfg.Database.Path)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("AGILETRACK_DB_DRIVER", "oracle")

	_, err := config.Load()
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())
}

func TestReleaseRejectsDefaultSecret(t *testing.T) {
	t.Setenv("AGILETRACK_MODE", "release")

	_, err := config.Load()
	assert.ErrorContains(t, err, "jwt secret must be set in release mode")

	t.Setenv("AGILETRACK_JWT_SECRET", "rotated-in-vault")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ModeRelease, cfg.Mode)
}

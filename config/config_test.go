package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"DB_DRIVER", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_HOST", "DB_PORT", "DB_POOL_SIZE",
	"SQLITE_PATH", "JWT_SECRET", "JWT_ACCESS_TOKEN_DURATION", "JWT_REFRESH_TOKEN_DURATION",
	"PORT", "USER_MIN_AGE", "LOG_LEVEL", "APP_ENV",
}

// clearEnv unsets every variable LoadConfig reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigPostgresDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_USER", "softdesk")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "softdesk")
	t.Setenv("JWT_SECRET", "jwt-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Pool.Host)
	assert.Equal(t, 5432, cfg.Database.Pool.Port)
	assert.Equal(t, 10, cfg.Database.Pool.MaxSize)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15, cfg.Users.MinAge)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigSQLiteNeedsNoCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("USER_MIN_AGE", "18")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLitePath)
	assert.Nil(t, cfg.Database.Pool)
	assert.Equal(t, 18, cfg.Users.MinAge)
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("JWT_ACCESS_TOKEN_DURATION", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "configuration errors:")
	assert.Contains(t, msg, "DB_USER")
	assert.Contains(t, msg, "DB_PASSWORD")
	assert.Contains(t, msg, "DB_NAME")
	assert.Contains(t, msg, "JWT_SECRET")
	assert.Contains(t, msg, "invalid value for DB_PORT")
	assert.Contains(t, msg, "invalid value for JWT_ACCESS_TOKEN_DURATION")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "jwt-secret")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestLoadConfigClampsPoolSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "n")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_POOL_SIZE", "500")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greater than maximum 100")
}

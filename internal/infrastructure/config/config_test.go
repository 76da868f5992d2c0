package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCleanEnv unsets keys for the duration of the test and restores them afterwards
func withCleanEnv(t *testing.T, keys ...string) func() {
	t.Helper()
	original := make(map[string]string, len(keys))
	for _, k := range keys {
		original[k] = os.Getenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
	return func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	}
}

func TestLoad(t *testing.T) {
	clearEnv := withCleanEnv(t,
		"ECH_APP_NAME",
		"ECH_APP_ENV",
		"ECH_APP_PORT",
		"ECH_DATABASE_HOST",
		"ECH_DATABASE_PORT",
		"ECH_DATABASE_USER",
		"ECH_DATABASE_PASSWORD",
		"ECH_DATABASE_DBNAME",
		"ECH_DATABASE_SSLMODE",
		"ECH_DATABASE_MAX_OPEN_CONNS",
		"ECH_DATABASE_MAX_IDLE_CONNS",
		"ECH_JWT_SECRET",
		"ECH_LEDGER_REFERENCE_PREFIX",
		"ECH_LEDGER_MAX_RETRY_ATTEMPTS",
		"ECH_REDIS_ENABLED",
		"ECH_STORAGE_ENABLED",
		"ECH_STORAGE_BUCKET",
		"ECH_NOTIFY_BUFFER_SIZE",
		"ECH_HTTP_CORS_ALLOW_ORIGINS",
		"ECH_HTTP_RATE_LIMIT_ENABLED",
		"ECH_HTTP_RATE_LIMIT_REQUESTS",
		"ECH_TELEMETRY_METRICS_INTERVAL",
	)

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "ech-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "ech", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("applies ledger and notification defaults", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "OP", cfg.Ledger.ReferencePrefix)
		assert.Equal(t, 5, cfg.Ledger.MaxRetryAttempts)
		assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.Equal(t, 256, cfg.Notify.BufferSize)
		assert.Equal(t, 30*time.Second, cfg.Notify.PingInterval)
		assert.Equal(t, 30*time.Second, cfg.Printing.Timeout)
		assert.Equal(t, 15*time.Minute, cfg.Storage.PresignExpiry)
		assert.Equal(t, time.Minute, cfg.Telemetry.MetricsInterval)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
		assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
		assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Idempotency-Key")
	})

	t.Run("loads values from environment variables with ECH prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_APP_NAME", "test-app")
		os.Setenv("ECH_APP_ENV", "testing")
		os.Setenv("ECH_APP_PORT", "9000")
		os.Setenv("ECH_DATABASE_HOST", "testdb.local")
		os.Setenv("ECH_DATABASE_PORT", "5433")
		os.Setenv("ECH_DATABASE_USER", "testuser")
		os.Setenv("ECH_DATABASE_PASSWORD", "testpass")
		os.Setenv("ECH_DATABASE_DBNAME", "testdb")
		os.Setenv("ECH_DATABASE_SSLMODE", "require")
		os.Setenv("ECH_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("ECH_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("ECH_LEDGER_REFERENCE_PREFIX", "CX")
		os.Setenv("ECH_REDIS_ENABLED", "true")
		os.Setenv("ECH_NOTIFY_BUFFER_SIZE", "16")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "CX", cfg.Ledger.ReferencePrefix)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 16, cfg.Notify.BufferSize)
	})

	t.Run("decodes durations and lists from the environment", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_TELEMETRY_METRICS_INTERVAL", "15s")
		os.Setenv("ECH_HTTP_CORS_ALLOW_ORIGINS", "https://caisse.example.dz,https://admin.example.dz")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 15*time.Second, cfg.Telemetry.MetricsInterval)
		assert.Equal(t, []string{"https://caisse.example.dz", "https://admin.example.dz"}, cfg.HTTP.CORSAllowOrigins)
	})

	t.Run("rejects an enabled rate limit without budget", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_HTTP_RATE_LIMIT_ENABLED", "true")
		os.Setenv("ECH_HTTP_RATE_LIMIT_REQUESTS", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.rate_limit_requests")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("ECH_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects zero MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_DATABASE_MAX_OPEN_CONNS", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_open_conns must be positive")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects a reference prefix containing digits", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_LEDGER_REFERENCE_PREFIX", "OP1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reference_prefix")
	})

	t.Run("rejects negative retry budget", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_LEDGER_MAX_RETRY_ATTEMPTS", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_retry_attempts")
	})

	t.Run("requires a bucket when storage is enabled", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		os.Setenv("ECH_STORAGE_BUCKET", "reports")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "reports", cfg.Storage.Bucket)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	clearEnv := withCleanEnv(t,
		"ECH_APP_ENV",
		"ECH_JWT_SECRET",
		"ECH_DATABASE_PASSWORD",
		"ECH_DATABASE_SSLMODE",
		"ECH_BOOTSTRAP_ADMIN_PASSWORD",
		"ECH_TELEMETRY_DB_LOG_FULL_SQL",
	)

	setValidProductionBase := func() {
		os.Setenv("ECH_APP_ENV", "production")
		os.Setenv("ECH_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("ECH_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ECH_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("ECH_APP_ENV", "production")
		os.Setenv("ECH_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ECH_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ECH_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("ECH_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ECH_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects a weak bootstrap password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ECH_BOOTSTRAP_ADMIN_PASSWORD", "admin")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bootstrap.admin_password")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ECH_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestLoadDotEnv(t *testing.T) {
	withCleanEnv(t, "ECH_DOTENV_FROM_FILE", "ECH_DOTENV_PRESET")
	t.Setenv("ECH_DOTENV_PRESET", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ECH_DOTENV_FROM_FILE=from-file\nECH_DOTENV_PRESET=from-file\n"), 0o600))

	require.NoError(t, loadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("ECH_DOTENV_FROM_FILE"))
	assert.Equal(t, "from-env", os.Getenv("ECH_DOTENV_PRESET"), "the environment wins over the file")
}

func TestLoad_ConfigFile(t *testing.T) {
	withCleanEnv(t, "ECH_LEDGER_REFERENCE_PREFIX", "ECH_NOTIFY_MAX_CLIENTS")()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[ledger]
reference_prefix = "CX"
idempotency_ttl = "2h"

[notify]
max_clients = 12
`), 0o600))
	t.Chdir(dir)

	t.Run("reads the file", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "CX", cfg.Ledger.ReferencePrefix)
		assert.Equal(t, 2*time.Hour, cfg.Ledger.IdempotencyTTL)
		assert.Equal(t, 12, cfg.Notify.MaxClients)
		assert.Equal(t, 5, cfg.Ledger.MaxRetryAttempts)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("ECH_NOTIFY_MAX_CLIENTS", "40")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Notify.MaxClients)
		assert.Equal(t, "CX", cfg.Ledger.ReferencePrefix)
	})
}

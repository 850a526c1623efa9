package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"MAYA_APP_NAME",
	"MAYA_APP_ENV",
	"MAYA_APP_PORT",
	"MAYA_DATABASE_DRIVER",
	"MAYA_DATABASE_HOST",
	"MAYA_DATABASE_PORT",
	"MAYA_DATABASE_USER",
	"MAYA_DATABASE_PASSWORD",
	"MAYA_DATABASE_DBNAME",
	"MAYA_DATABASE_SSLMODE",
	"MAYA_DATABASE_MAX_OPEN_CONNS",
	"MAYA_DATABASE_MAX_IDLE_CONNS",
	"MAYA_JWT_SECRET",
	"MAYA_REDIS_ENABLED",
	"MAYA_SMTP_ENABLED",
	"MAYA_STORAGE_DRIVER",
	"MAYA_SMTP_HOST",
	"MAYA_PROCUREMENT_RESTOCK_TIMEOUT",
	"MAYA_PROCUREMENT_ORDER_LOCK_ENABLED",
	"MAYA_TELEMETRY_SAMPLING_RATIO",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "mayavriksh-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "mayavriksh", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 30*time.Second, cfg.Procurement.RestockTimeout)
		assert.Equal(t, 3, cfg.Procurement.CompensationMaxRetries)
		assert.Equal(t, time.Minute, cfg.Procurement.CompensationDrainInterval)
		assert.Equal(t, 100, cfg.Procurement.MaxPageSize)
		assert.Equal(t, 587, cfg.SMTP.Port)
		assert.Equal(t, "s3", cfg.Storage.Driver)
	})

	t.Run("loads values from environment variables with MAYA prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_APP_NAME", "test-app")
		t.Setenv("MAYA_APP_PORT", "9000")
		t.Setenv("MAYA_DATABASE_HOST", "testdb.local")
		t.Setenv("MAYA_DATABASE_PORT", "5433")
		t.Setenv("MAYA_DATABASE_PASSWORD", "testpass")
		t.Setenv("MAYA_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("MAYA_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("MAYA_PROCUREMENT_RESTOCK_TIMEOUT", "45s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 45*time.Second, cfg.Procurement.RestockTimeout)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("MAYA_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_STORAGE_DRIVER", "gcs")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver")
	})

	t.Run("order lock requires redis", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_PROCUREMENT_ORDER_LOCK_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.enabled")

		t.Setenv("MAYA_REDIS_ENABLED", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Procurement.OrderLockEnabled)
	})

	t.Run("smtp requires host when enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_SMTP_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "smtp.host")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAYA_APP_ENV", "production")
		t.Setenv("MAYA_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("MAYA_DATABASE_PASSWORD", "secure-password")
		t.Setenv("MAYA_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"requires jwt.secret", "MAYA_JWT_SECRET", "", "jwt.secret is required"},
		{"requires long jwt.secret", "MAYA_JWT_SECRET", "short-secret", "at least 32 characters"},
		{"requires database.password", "MAYA_DATABASE_PASSWORD", "", "database.password is required"},
		{"requires ssl", "MAYA_DATABASE_SSLMODE", "disable", "sslmode cannot be 'disable'"},
		{"requires postgres", "MAYA_DATABASE_DRIVER", "sqlite", "must be postgres in production"},
		{"requires s3 storage", "MAYA_STORAGE_DRIVER", "memory", "must be s3 in production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the db name as path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", DBName: "file::memory:?cache=shared"}
		assert.Equal(t, "file::memory:?cache=shared", cfg.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}

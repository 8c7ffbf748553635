package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every ORDERHOOK_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "ORDERHOOK_") {
			continue
		}
		key := strings.SplitN(kv, "=", 2)[0]
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// setEnv sets env vars for the duration of the test
func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "orderhook", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "orderhook", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.True(t, cfg.Webhook.SyncApply)
		assert.Equal(t, int64(1<<20), cfg.Webhook.MaxPayloadSize)
		assert.Equal(t, 10*time.Second, cfg.Webhook.ApplyTimeout)
		assert.Empty(t, cfg.Webhook.AppSecrets)

		assert.True(t, cfg.Retry.Enabled)
		assert.Equal(t, 5, cfg.Retry.MaxAttempts)
		assert.Equal(t, 30*time.Second, cfg.Retry.BaseBackoff)
		assert.Equal(t, 30*time.Minute, cfg.Retry.MaxBackoff)
		assert.Equal(t, 50, cfg.Retry.BatchSize)

		assert.False(t, cfg.Redis.Enabled)
		assert.Empty(t, cfg.Kafka.Brokers)
		assert.Equal(t, "orderhook.notifications", cfg.Kafka.Topic)
	})

	t.Run("loads values from environment variables with ORDERHOOK prefix", func(t *testing.T) {
		clearEnv(t)
		setEnv(t, map[string]string{
			"ORDERHOOK_APP_PORT":                "9000",
			"ORDERHOOK_DATABASE_HOST":           "db.local",
			"ORDERHOOK_DATABASE_MAX_OPEN_CONNS": "50",
			"ORDERHOOK_DATABASE_MAX_IDLE_CONNS": "10",
			"ORDERHOOK_WEBHOOK_APP_SECRETS":     "old-secret, new-secret",
			"ORDERHOOK_WEBHOOK_SYNC_APPLY":      "false",
			"ORDERHOOK_RETRY_MAX_ATTEMPTS":      "8",
			"ORDERHOOK_RETRY_BASE_BACKOFF":      "10s",
			"ORDERHOOK_KAFKA_BROKERS":           "k1:9092,k2:9092",
			"ORDERHOOK_REDIS_ENABLED":           "true",
		})

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.local", cfg.Database.Host)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, []string{"old-secret", "new-secret"}, cfg.Webhook.AppSecrets)
		assert.False(t, cfg.Webhook.SyncApply)
		assert.Equal(t, 8, cfg.Retry.MaxAttempts)
		assert.Equal(t, 10*time.Second, cfg.Retry.BaseBackoff)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		setEnv(t, map[string]string{
			"ORDERHOOK_DATABASE_MAX_OPEN_CONNS": "10",
			"ORDERHOOK_DATABASE_MAX_IDLE_CONNS": "20",
		})

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates retry backoff bounds", func(t *testing.T) {
		clearEnv(t)
		setEnv(t, map[string]string{
			"ORDERHOOK_RETRY_BASE_BACKOFF": "1h",
			"ORDERHOOK_RETRY_MAX_BACKOFF":  "1m",
		})

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry.max_backoff")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	base := map[string]string{
		"ORDERHOOK_APP_ENV":             "production",
		"ORDERHOOK_JWT_SECRET":          "this-is-a-very-secure-jwt-secret-key-32chars",
		"ORDERHOOK_DATABASE_PASSWORD":   "secure-password",
		"ORDERHOOK_DATABASE_SSLMODE":    "require",
		"ORDERHOOK_WEBHOOK_APP_SECRETS": "shpss_app",
	}

	t.Run("accepts a complete production config", func(t *testing.T) {
		clearEnv(t)
		setEnv(t, base)

		_, err := Load()
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"requires webhook secrets", "ORDERHOOK_WEBHOOK_APP_SECRETS", "webhook.app_secrets is required"},
		{"requires jwt secret", "ORDERHOOK_JWT_SECRET", "jwt.secret is required"},
		{"requires database password", "ORDERHOOK_DATABASE_PASSWORD", "database.password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range base {
				if k != tt.unset {
					t.Setenv(k, v)
				}
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("rejects short jwt secret", func(t *testing.T) {
		clearEnv(t)
		setEnv(t, base)
		t.Setenv("ORDERHOOK_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss word", DBName: "orderhook", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/orderhook?sslmode=disable", d.DSN())
}

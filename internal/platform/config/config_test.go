package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "metrologi.audit", cfg.Kafka.AuditTopic)
	assert.Empty(t, cfg.Database.DSN)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("METROLOGI_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("EXPIRY_WARNING_WINDOW", "48h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 48*time.Hour, cfg.Scanner.WarningWindow)
}

func TestValidate(t *testing.T) {
	t.Run("rejects non-positive page size", func(t *testing.T) {
		t.Setenv("DEFAULT_PAGE_SIZE", "0")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("production requires a password hash", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", Production)
		t.Setenv("JWT_SIGNING_KEY", "a-real-secret")
		_, err := FromEnv()
		require.ErrorContains(t, err, "ADMIN_PASSWORD_HASH")
	})
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_FORMAT=text\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LOG_FORMAT") })

	n, err := LoadEnv([]string{path, filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Log.Format)
}

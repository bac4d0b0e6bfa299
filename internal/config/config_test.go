package config

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ":2112", cfg.MetricsAddr)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "perennial.db", cfg.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Compress)
	assert.Empty(t, cfg.CalendarDir)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PERENNIAL_ADDR", ":9999")
	t.Setenv("PERENNIAL_STORE", "redis")
	t.Setenv("PERENNIAL_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("PERENNIAL_COMPRESS", "true")
	t.Setenv("PERENNIAL_CALENDAR_DIR", "/srv/calendars")
	t.Setenv("PERENNIAL_LOG_FORMAT", "json")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "redis", cfg.Store)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.True(t, cfg.Compress)
	assert.Equal(t, "/srv/calendars", cfg.CalendarDir)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("PERENNIAL_COMPRESS", "definitely")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestEncryptionKeyBytes(t *testing.T) {
	key := strings.Repeat("ab", 32)

	t.Run("unset", func(t *testing.T) {
		var cfg Serve
		got, err := cfg.EncryptionKeyBytes()
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Serve{EncryptionKey: key}
		got, err := cfg.EncryptionKeyBytes()
		require.NoError(t, err)
		want, _ := hex.DecodeString(key)
		assert.Equal(t, want, got)
	})

	t.Run("not hex", func(t *testing.T) {
		cfg := Serve{EncryptionKey: "zz"}
		_, err := cfg.EncryptionKeyBytes()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid hex")
	})

	t.Run("wrong length", func(t *testing.T) {
		cfg := Serve{EncryptionKey: "abcd"}
		_, err := cfg.EncryptionKeyBytes()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 bytes")
	})
}

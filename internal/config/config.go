// Package config loads deployment configuration for the perennial commands
// from PERENNIAL_* environment variables. Command-line flags override the
// parsed values.
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Serve is the configuration for the serve command.
type Serve struct {
	Addr        string `env:"PERENNIAL_ADDR"         envDefault:":8080"`
	MetricsAddr string `env:"PERENNIAL_METRICS_ADDR" envDefault:":2112"`

	// Store selects the checkpoint backend: memory, file, redis or sqlite.
	Store      string `env:"PERENNIAL_STORE"       envDefault:"memory"`
	DataDir    string `env:"PERENNIAL_DATA_DIR"    envDefault:"data"`
	RedisURL   string `env:"PERENNIAL_REDIS_URL"   envDefault:"redis://localhost:6379/0"`
	SQLitePath string `env:"PERENNIAL_SQLITE_PATH" envDefault:"perennial.db"`

	// EncryptionKey is the hex form of a 32-byte AES-256 key. When set,
	// checkpoints are encrypted at rest. Compress additionally gzips
	// payloads before they are encrypted.
	EncryptionKey string `env:"PERENNIAL_ENCRYPTION_KEY"`
	Compress      bool   `env:"PERENNIAL_COMPRESS"`

	// CalendarDir points at a Loam repository of calendar documents used
	// to seed working hours for sessions without a checkpoint.
	CalendarDir string `env:"PERENNIAL_CALENDAR_DIR"`

	LogLevel  string `env:"PERENNIAL_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"PERENNIAL_LOG_FORMAT" envDefault:"text"`
}

// FromEnv parses the serve configuration from the environment. Unset
// variables fall back to the struct defaults.
func FromEnv() (Serve, error) {
	var cfg Serve
	if err := env.Parse(&cfg); err != nil {
		return Serve{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// EncryptionKeyBytes decodes the hex-encoded encryption key. An unset key
// returns nil with no error; a malformed or wrong-length key is an error.
func (s Serve) EncryptionKeyBytes() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (64 hex chars), got %d", len(key))
	}
	return key, nil
}

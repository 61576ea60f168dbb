// Package config centralizes how CommFlow reads environment variables and
// exposes them as strongly typed Go values. The data directory is resolved
// here once and handed to every component that touches disk.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/Drakz0n/CommFlow/internal/storage"
)

// Config represents runtime configuration for the CLI.
type Config struct {
	// DataDir is absolute after Load.
	DataDir       string `env:"COMMFLOW_DATA_DIR"`
	LogFile       string `env:"COMMFLOW_LOG_FILE"`
	LogLevel      string `env:"COMMFLOW_LOG_LEVEL" envDefault:"info"`
	LogMaxSizeMB  int    `env:"COMMFLOW_LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"COMMFLOW_LOG_MAX_BACKUPS" envDefault:"3"`
	MaxImageBytes int64  `env:"COMMFLOW_MAX_IMAGE_BYTES" envDefault:"10485760"`

	S3 S3Config `envPrefix:"COMMFLOW_S3_"`
}

// S3Config describes an optional S3-compatible bucket that exports can be
// uploaded to. Export uploads are disabled while Endpoint is empty.
type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"commflow-exports"`
	Region    string `env:"REGION"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
}

// Enabled reports whether an endpoint was configured.
func (s S3Config) Enabled() bool {
	return s.Endpoint != ""
}

const (
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
	defaultMaxImageBytes = 10 << 20 // 10 MiB
	defaultBucket        = "commflow-exports"
	logDirName           = "logs"
	logFileName          = "commflow.log"
)

// Load reads configuration from environment variables falling back to
// defaults. dataDirOverride, typically a command-line flag, wins over
// COMMFLOW_DATA_DIR; when both are empty the Data folder beside the
// executable is used.
func Load(dataDirOverride string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}
	dir, err := storage.ResolveDataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dir
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(dir, logDirName, logFileName)
	}
	// Non-positive numbers are treated as unset rather than rejected.
	if cfg.LogMaxSizeMB <= 0 {
		cfg.LogMaxSizeMB = defaultLogMaxSizeMB
	}
	if cfg.LogMaxBackups <= 0 {
		cfg.LogMaxBackups = defaultLogMaxBackups
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	if cfg.S3.Bucket == "" {
		cfg.S3.Bucket = defaultBucket
	}
	return cfg, nil
}

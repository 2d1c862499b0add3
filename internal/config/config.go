// Package config holds the runtime settings shared by the standoff commands.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/FocuswithJustin/standoff/internal/logging"
)

// Compression names accepted for bundles.
const (
	CompressionXZ   = "xz"
	CompressionGzip = "gzip"
)

// Config holds runtime configuration.
type Config struct {
	DBPath      string // SQLite document store path
	LogLevel    string // debug, info, warn, error
	LogFormat   string // text or json
	Workers     int    // Documents processed concurrently by pipelines
	Compression string // Bundle compression (xz or gzip)
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DBPath:      DefaultDBPath(),
		LogLevel:    "info",
		LogFormat:   "text",
		Workers:     4,
		Compression: CompressionXZ,
	}
}

// DefaultDBPath returns ~/.standoff/standoff.db, or a relative path when the
// home directory cannot be determined.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "standoff.db"
	}
	return filepath.Join(home, ".standoff", "standoff.db")
}

// Validate checks every field and returns the first problem found.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: database path is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	switch c.Compression {
	case CompressionXZ, CompressionGzip:
	default:
		return fmt.Errorf("config: unknown compression %q", c.Compression)
	}
	return nil
}

// InitLogging applies the logging settings, sending output to w (stderr
// when nil).
func (c Config) InitLogging(w io.Writer) error {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return err
	}
	logging.Init(level, format, w)
	return nil
}

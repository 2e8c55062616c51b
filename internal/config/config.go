package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBlockSize mirrors the 4 KiB block granularity used by the update
// payload format.
const DefaultBlockSize = 4096

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// BlockSize is the partition block size in bytes. Must be a power of two.
	BlockSize int `json:"blockSize" yaml:"blockSize"`
	// DataDir is where the change-log store lives. Empty means DefaultDataDir.
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync is the store's sync policy: "always", "interval", or "never".
	Fsync string `json:"fsync" yaml:"fsync"`
	// FsyncIntervalMs controls group-commit when Fsync is "interval".
	FsyncIntervalMs int `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// Log configures level/format/file for the process logger.
	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig mirrors pkg/log.Config without importing it, so config stays leaf.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		BlockSize:       DefaultBlockSize,
		Fsync:           "always",
		FsyncIntervalMs: 5,
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks structural constraints that would make a writer unsafe.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("config: blockSize %d is not a positive power of two", c.BlockSize)
	}
	switch c.Fsync {
	case "", "always", "interval", "never":
	default:
		return fmt.Errorf("config: unknown fsync policy %q", c.Fsync)
	}
	return nil
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, errors.New("config: unsupported file extension, want .json/.yaml/.yml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

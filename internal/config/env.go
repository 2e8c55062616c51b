package config

import (
	"os"
	"strconv"
)

// FromEnv overlays UPDATELOG_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("UPDATELOG_BLOCK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BlockSize = n
		}
	}
	if v := os.Getenv("UPDATELOG_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("UPDATELOG_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("UPDATELOG_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("UPDATELOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("UPDATELOG_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("UPDATELOG_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays cfg with FILEVAULT_* environment variables. Unset or
// malformed values leave the current setting untouched.
func parseEnv(cfg *Config) {
	if v := os.Getenv("FILEVAULT_API_URL"); v != "" {
		cfg.ServerBaseURL = v
	}
	if v := os.Getenv("FILEVAULT_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("FILEVAULT_CACHE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.CacheMaxBytes = n
		}
	}
	if v := os.Getenv("FILEVAULT_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

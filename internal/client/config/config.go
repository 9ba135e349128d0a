// Package config loads runtime settings for the filevault CLI.
//
// Sources are layered: built-in defaults, then a JSON file (-c/-config),
// then environment variables, then command-line flags. Later sources take
// precedence over earlier ones.
package config

import "time"

// Config holds runtime settings for the filevault CLI.
type Config struct {
	// ServerBaseURL is the base endpoint of the file-storage API,
	// e.g. "http://localhost:8000/api".
	ServerBaseURL string

	// DatabasePath is the on-device sqlite file holding the persisted
	// session subset and the blob cache.
	DatabasePath string

	// CacheMaxBytes bounds the blob cache; least-recently-used entries are
	// evicted past this size. <= 0 disables eviction.
	CacheMaxBytes int64

	// RequestTimeout applies to every outbound HTTP call.
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8000/api"
	c.DatabasePath = "filevault.db"
	c.CacheMaxBytes = 64 << 20
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), environment variables, and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

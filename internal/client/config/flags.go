package config

import (
	"flag"
	"os"
	"time"

	"github.com/avoronov/filevault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the file-storage API (default from Config)
//	-d string   path to the on-device client database
//	-m int      blob cache size cap in bytes, <= 0 disables eviction
//	-t int      request timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with the -c/-config flags.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-m", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the file-storage API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the client database")
	fs.Int64Var(&cfg.CacheMaxBytes, "m", cfg.CacheMaxBytes, "blob cache size cap in bytes")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}

package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/lockbox/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   storage backend: memory, sqlite, postgres or s3
//	-f string   sqlite database file
//	-d string   postgres connection string
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components. S3 settings carry credentials and are JSON-only.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-f", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "storage backend")
	fs.StringVar(&cfg.SQLitePath, "f", cfg.SQLitePath, "sqlite database file")
	fs.StringVar(&cfg.PostgresDSN, "d", cfg.PostgresDSN, "postgres connection string")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// Package config loads runtime settings for the lockbox CLI.
package config

import "github.com/dmitrijs2005/lockbox/internal/storage"

// Config holds runtime settings for the CLI.
//
// Fields:
//   - StorageBackend: one of "memory", "sqlite", "postgres", "s3".
//   - SQLitePath: database file for the sqlite backend.
//   - PostgresDSN: connection string for the postgres backend.
//   - S3*: bucket access for the s3 backend; S3Endpoint is optional and
//     points at an S3-compatible server such as MinIO.
type Config struct {
	StorageBackend string
	SQLitePath     string
	PostgresDSN    string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StorageBackend = storage.BackendSQLite
	c.SQLitePath = "lockbox.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Storage maps the CLI settings onto a storage backend configuration.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Backend:     c.StorageBackend,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		S3: storage.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3Endpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		},
	}
}

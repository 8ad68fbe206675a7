package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lockbox/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. After
// parsing, values are copied into the runtime Config.
type JsonConfig struct {
	StorageBackend string `json:"storage_backend"`
	SQLitePath     string `json:"sqlite_path"`
	PostgresDSN    string `json:"postgres_dsn"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3Endpoint     string `json:"s3_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags via
// flagx.JsonConfigFlags(); if neither is present, no JSON is loaded.
// Only non-empty JSON fields override the current values, so the intended
// order is: defaults -> parseJson -> parseFlags.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.StorageBackend != "" {
		cfg.StorageBackend = jc.StorageBackend
	}
	if jc.SQLitePath != "" {
		cfg.SQLitePath = jc.SQLitePath
	}
	if jc.PostgresDSN != "" {
		cfg.PostgresDSN = jc.PostgresDSN
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
}

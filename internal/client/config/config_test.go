package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/lockbox/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"lockbox"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()
	assert.Equal(t, storage.BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "lockbox.db", cfg.SQLitePath)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-s", "memory", "-f", "other.db")

	cfg := LoadConfig()
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "other.db", cfg.SQLitePath)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	body := `{
		"storage_backend": "s3",
		"s3_bucket": "vaults",
		"s3_region": "eu-west-1",
		"s3_endpoint": "http://localhost:9000",
		"s3_access_key": "ak",
		"s3_secret_key": "sk"
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, "vaults", cfg.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)

	// fields absent from the JSON keep their defaults
	assert.Equal(t, "lockbox.db", cfg.SQLitePath)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage_backend":"postgres"}`), 0o600))

	withArgs(t, "-c", path, "-s", "memory")

	cfg := LoadConfig()
	assert.Equal(t, "memory", cfg.StorageBackend)
}

func TestConfig_StorageMapping(t *testing.T) {
	cfg := &Config{
		StorageBackend: "s3",
		SQLitePath:     "a.db",
		PostgresDSN:    "postgres://u@h/db",
		S3Bucket:       "b",
		S3Region:       "r",
		S3Endpoint:     "e",
		S3AccessKey:    "ak",
		S3SecretKey:    "sk",
	}

	sc := cfg.Storage()
	assert.Equal(t, "s3", sc.Backend)
	assert.Equal(t, "a.db", sc.SQLitePath)
	assert.Equal(t, "postgres://u@h/db", sc.PostgresDSN)
	assert.Equal(t, storage.S3Config{
		Bucket:       "b",
		Region:       "r",
		BaseEndpoint: "e",
		AccessKey:    "ak",
		SecretKey:    "sk",
	}, sc.S3)
}

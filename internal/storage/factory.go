package storage

import (
	"context"
	"fmt"
)

// Backend kinds understood by NewKV.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
}

// NewKV constructs the backend named by cfg.Backend.
func NewKV(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendSQLite:
		return NewSQLiteKV(ctx, cfg.SQLitePath)
	case BackendPostgres:
		return NewPostgresKV(ctx, cfg.PostgresDSN)
	case BackendS3:
		return NewS3KV(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

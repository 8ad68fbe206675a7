package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/dbx"
	"github.com/dmitrijs2005/lockbox/internal/storage/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresKV keeps the kv table in a PostgreSQL database, for vaults that
// should live on a shared or managed server instead of a local file.
type PostgresKV struct {
	db *sql.DB
}

// NewPostgresKV connects to the database described by dsn and applies
// pending migrations.
func NewPostgresKV(ctx context.Context, dsn string) (*PostgresKV, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	goose.SetBaseFS(migrations.Postgres)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrations failed: %v", common.ErrStorageUnavailable, err)
	}

	return &PostgresKV{db: db}, nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get kv[%s]: %v", common.ErrStorageUnavailable, key, err)
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: failed to set kv[%s]: %v", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

// CompareAndSwap runs the read-compare-write inside one transaction, so a
// concurrent writer cannot slip between the comparison and the upsert.
func (p *PostgresKV) CompareAndSwap(ctx context.Context, key string, old, new []byte) error {
	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var cur []byte
		exists := true
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1 FOR UPDATE`, key).Scan(&cur)
		if errors.Is(err, sql.ErrNoRows) {
			exists = false
		} else if err != nil {
			return fmt.Errorf("%w: failed to read kv[%s]: %v", common.ErrStorageUnavailable, key, err)
		}

		if old == nil {
			if exists {
				return common.ErrConflict
			}
		} else if !exists || !bytes.Equal(cur, old) {
			return common.ErrConflict
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, key, new); err != nil {
			return fmt.Errorf("%w: failed to swap kv[%s]: %v", common.ErrStorageUnavailable, key, err)
		}
		return nil
	})
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: failed to delete kv[%s]: %v", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (p *PostgresKV) Close() error { return p.db.Close() }

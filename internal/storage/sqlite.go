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

	_ "modernc.org/sqlite"
)

// SQLiteKV is the default durable backend: a single kv table in a local
// SQLite database file.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (creating if needed) the database at dsn and applies
// pending migrations.
func NewSQLiteKV(ctx context.Context, dsn string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	// One local writer; a single connection also keeps in-memory DSNs
	// pointed at the same database.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if err := goose.UpContext(ctx, db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrations failed: %v", common.ErrStorageUnavailable, err)
	}

	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get kv[%s]: %v", common.ErrStorageUnavailable, key, err)
	}
	return value, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: failed to set kv[%s]: %v", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

// CompareAndSwap runs the read-compare-write inside one transaction, so a
// concurrent writer cannot slip between the comparison and the upsert.
func (s *SQLiteKV) CompareAndSwap(ctx context.Context, key string, old, new []byte) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var cur []byte
		exists := true
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&cur)
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
			INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, new); err != nil {
			return fmt.Errorf("%w: failed to swap kv[%s]: %v", common.ErrStorageUnavailable, key, err)
		}
		return nil
	})
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("%w: failed to delete kv[%s]: %v", common.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *SQLiteKV) Close() error { return s.db.Close() }

package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/lockbox/internal/common"
)

const (
	pgSelectQ    = `(?s)^\s*SELECT\s+value\s+FROM\s+kv\s+WHERE\s+key\s*=\s*\$1\s*$`
	pgSelectUpdQ = `(?s)^\s*SELECT\s+value\s+FROM\s+kv\s+WHERE\s+key\s*=\s*\$1\s+FOR\s+UPDATE\s*$`
	pgUpsertQ    = `(?s)^\s*INSERT\s+INTO\s+kv\s+\(key,\s*value\)\s+VALUES\s+\(\$1,\s*\$2\)\s+ON\s+CONFLICT\s+\(key\)\s+DO\s+UPDATE\s+SET\s+value\s*=\s*EXCLUDED\.value\s*$`
	pgDeleteQ    = `(?s)^\s*DELETE\s+FROM\s+kv\s+WHERE\s+key\s*=\s*\$1\s*$`
)

func newPostgresKVWithMock(t *testing.T) (*PostgresKV, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PostgresKV{db: db}, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresKV_Get(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte("v1"))
	mock.ExpectQuery(pgSelectQ).WithArgs("k").WillReturnRows(rows)

	got, err := kv.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("unexpected value: %q", got)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_GetNotFound(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectQuery(pgSelectQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := kv.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_GetDBError(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectQuery(pgSelectQ).WithArgs("k").WillReturnError(errors.New("db down"))

	_, err := kv.Get(context.Background(), "k")
	if !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("want common.ErrStorageUnavailable, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_Set(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectExec(pgUpsertQ).WithArgs("k", []byte("v1")).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := kv.Set(context.Background(), "k", []byte("v1")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_Delete(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectExec(pgDeleteQ).WithArgs("k").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := kv.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_CompareAndSwap_CreateWhenAbsent(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(pgSelectUpdQ).WithArgs("k").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(pgUpsertQ).WithArgs("k", []byte("v1")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := kv.CompareAndSwap(context.Background(), "k", nil, []byte("v1")); err != nil {
		t.Fatalf("CompareAndSwap error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_CompareAndSwap_CreateConflictsWhenPresent(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte("v1"))
	mock.ExpectBegin()
	mock.ExpectQuery(pgSelectUpdQ).WithArgs("k").WillReturnRows(rows)
	mock.ExpectRollback()

	err := kv.CompareAndSwap(context.Background(), "k", nil, []byte("v2"))
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_CompareAndSwap_Match(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte("v1"))
	mock.ExpectBegin()
	mock.ExpectQuery(pgSelectUpdQ).WithArgs("k").WillReturnRows(rows)
	mock.ExpectExec(pgUpsertQ).WithArgs("k", []byte("v2")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := kv.CompareAndSwap(context.Background(), "k", []byte("v1"), []byte("v2")); err != nil {
		t.Fatalf("CompareAndSwap error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_CompareAndSwap_Mismatch(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	rows := sqlmock.NewRows([]string{"value"}).AddRow([]byte("v-other"))
	mock.ExpectBegin()
	mock.ExpectQuery(pgSelectUpdQ).WithArgs("k").WillReturnRows(rows)
	mock.ExpectRollback()

	err := kv.CompareAndSwap(context.Background(), "k", []byte("v1"), []byte("v2"))
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_CompareAndSwap_OldGivenButAbsent(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(pgSelectUpdQ).WithArgs("k").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := kv.CompareAndSwap(context.Background(), "k", []byte("v1"), []byte("v2"))
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresKV_CompareAndSwap_ReadError(t *testing.T) {
	kv, mock := newPostgresKVWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(pgSelectUpdQ).WithArgs("k").WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := kv.CompareAndSwap(context.Background(), "k", nil, []byte("v1"))
	if !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("want common.ErrStorageUnavailable, got %v", err)
	}
	expectationsMet(t, mock)
}

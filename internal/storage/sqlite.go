package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteBlob keeps blobs in a single on-device SQLite table.
type SQLiteBlob struct {
	db *sql.DB
}

func OpenSQLiteBlob(ctx context.Context, path string) (*SQLiteBlob, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createBlobTableSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("create blob table: %w", err)
	}
	return &SQLiteBlob{db: db}, nil
}

func (s *SQLiteBlob) Close() error {
	return s.db.Close()
}

func (s *SQLiteBlob) Get(ctx context.Context, name string) ([]byte, error) {
	var contents []byte
	err := s.db.QueryRowContext(ctx, getBlobSQLite, name).Scan(&contents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return contents, nil
}

func (s *SQLiteBlob) Put(ctx context.Context, name string, contents []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin blob write: %w", err)
	}
	if _, err := tx.ExecContext(ctx, putBlobSQLite, name, contents); err != nil {
		tx.Rollback()
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit blob %s: %w", name, err)
	}
	return nil
}

var createBlobTableSQLite = `
CREATE TABLE IF NOT EXISTS blobs (
	name       TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)
`

var getBlobSQLite = `
SELECT
	body
FROM
	blobs
WHERE
	name = ?
`

var putBlobSQLite = `
INSERT INTO
	blobs
	(name, body)
VALUES
	(?, ?)
ON CONFLICT (name)
	DO UPDATE SET body=excluded.body, updated_at=strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
`

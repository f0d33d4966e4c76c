package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/nmiodice/riders-activity/internal/database"
)

// PostgresBlob keeps blobs in a shared Postgres table, keyed by owner so that
// several devices of one user can share a database.
type PostgresBlob struct {
	db    *database.DB
	owner string
}

func NewPostgresBlob(ctx context.Context, db *database.DB, owner string) (*PostgresBlob, error) {
	err := db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createClientBlobSQL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating ClientBlob table: %w", err)
	}
	return &PostgresBlob{db: db, owner: owner}, nil
}

func (p *PostgresBlob) Get(ctx context.Context, name string) ([]byte, error) {
	var contents []byte
	err := p.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, getClientBlobSQL, p.owner, name)
		if err := row.Scan(&contents); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBlobNotFound
			}
			return fmt.Errorf("fetching blob %s: %w", name, err)
		}
		return nil
	})
	return contents, err
}

func (p *PostgresBlob) Put(ctx context.Context, name string, contents []byte) error {
	return p.db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, putClientBlobSQL, p.owner, name, contents)
		var updated string
		if err := row.Scan(&updated); err != nil {
			return fmt.Errorf("writing blob %s: %w", name, err)
		}
		return nil
	})
}

var createClientBlobSQL = `
CREATE TABLE IF NOT EXISTS ClientBlob (
	owner      TEXT NOT NULL,
	name       TEXT NOT NULL,
	body       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (owner, name)
)
`

var getClientBlobSQL = `
SELECT
	body
FROM
	ClientBlob
WHERE
	owner = $1 AND name = $2
`

var putClientBlobSQL = `
INSERT INTO
	ClientBlob
	(owner, name, body)
VALUES
	($1, $2, $3)
ON CONFLICT (owner, name)
	DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()
RETURNING
	name
`

// Package postgres implements the taxonomy and document stores on a
// transactional Postgres schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"office-archive-indexer/internal/core/domain"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const uniqueViolationCode = "23505"

// wrapUnique converts a Postgres unique violation into the typed signal
// callers use to refetch by natural key after a lost race.
func wrapUnique(operation string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.WrapError(domain.ErrUniqueViolation, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// EnsureSchema bootstraps all tables. DDL is serialized across
// concurrent importer startups via an advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS departments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS topics (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL,
	category_id TEXT NOT NULL REFERENCES categories(id),
	UNIQUE (category_id, slug)
);

CREATE TABLE IF NOT EXISTS brands (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS machine_models (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	brand_id TEXT REFERENCES brands(id)
);

CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS file_assets (
	id TEXT PRIMARY KEY,
	hash TEXT NOT NULL UNIQUE,
	storage_path TEXT NOT NULL,
	bucket TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	topic_id TEXT NOT NULL REFERENCES topics(id),
	asset_id TEXT NOT NULL REFERENCES file_assets(id),
	content TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_title_topic ON documents(title, topic_id);

CREATE TABLE IF NOT EXISTS technical_metadata (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
	department_id TEXT NOT NULL REFERENCES departments(id),
	category_id TEXT NOT NULL REFERENCES categories(id),
	topic_id TEXT NOT NULL REFERENCES topics(id),
	brand_id TEXT REFERENCES brands(id),
	source TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS document_models (
	document_id TEXT NOT NULL REFERENCES documents(id),
	model_id TEXT NOT NULL REFERENCES machine_models(id),
	PRIMARY KEY (document_id, model_id)
);

CREATE TABLE IF NOT EXISTS document_tags (
	document_id TEXT NOT NULL REFERENCES documents(id),
	tag_id TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (document_id, tag_id)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

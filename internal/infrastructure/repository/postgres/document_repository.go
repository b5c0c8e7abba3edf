package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"office-archive-indexer/internal/core/domain"
)

// DocumentRepository writes each file's batch in a single transaction
// so a half-imported document never becomes visible.
type DocumentRepository struct {
	db             *sql.DB
	acquireTimeout time.Duration
	commitTimeout  time.Duration
}

func NewDocumentRepository(db *sql.DB, acquireTimeout, commitTimeout time.Duration) *DocumentRepository {
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	if commitTimeout <= 0 {
		commitTimeout = 30 * time.Second
	}
	return &DocumentRepository{
		db:             db,
		acquireTimeout: acquireTimeout,
		commitTimeout:  commitTimeout,
	}
}

func (r *DocumentRepository) GetAssetByHash(ctx context.Context, hash string) (*domain.FileAsset, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, hash, storage_path, bucket, mime_type, size, created_at
FROM file_assets
WHERE hash = $1
`, hash)

	var asset domain.FileAsset
	err := row.Scan(&asset.ID, &asset.Hash, &asset.StoragePath, &asset.Bucket, &asset.MimeType, &asset.Size, &asset.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get asset by hash", err)
		}
		return nil, fmt.Errorf("scan file asset: %w", err)
	}
	return &asset, nil
}

func (r *DocumentRepository) FindDocumentByTitleAndTopic(ctx context.Context, title, topicID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, topic_id, asset_id, COALESCE(content, ''), created_at, updated_at
FROM documents
WHERE title = $1 AND topic_id = $2
`, title, topicID)

	var doc domain.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.TopicID, &doc.AssetID, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "find document by title and topic", err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

// CommitImport persists one file's asset, document, metadata and join
// rows atomically. Joins are resynced wholesale: delete then recreate
// from the batch, so a re-import converges instead of accumulating.
func (r *DocumentRepository) CommitImport(ctx context.Context, batch *domain.ImportBatch) error {
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, r.acquireTimeout)
	defer cancelAcquire()

	conn, err := r.db.Conn(acquireCtx)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "acquire connection", err)
	}
	defer conn.Close()

	commitCtx, cancelCommit := context.WithTimeout(ctx, r.commitTimeout)
	defer cancelCommit()

	tx, err := conn.BeginTx(commitCtx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.writeBatch(commitCtx, tx, batch); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) writeBatch(ctx context.Context, tx *sql.Tx, batch *domain.ImportBatch) error {
	if batch.AssetIsNew {
		_, err := tx.ExecContext(ctx, `
INSERT INTO file_assets (id, hash, storage_path, bucket, mime_type, size, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (hash) DO NOTHING
`, batch.Asset.ID, batch.Asset.Hash, batch.Asset.StoragePath, batch.Asset.Bucket,
			batch.Asset.MimeType, batch.Asset.Size, batch.Asset.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert file asset: %w", err)
		}
	}

	doc := batch.Document
	_, err := tx.ExecContext(ctx, `
INSERT INTO documents (id, title, topic_id, asset_id, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	topic_id = EXCLUDED.topic_id,
	asset_id = EXCLUDED.asset_id,
	content = EXCLUDED.content,
	updated_at = EXCLUDED.updated_at
`, doc.ID, doc.Title, doc.TopicID, doc.AssetID, doc.Content, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	meta := batch.Metadata
	_, err = tx.ExecContext(ctx, `
INSERT INTO technical_metadata (id, document_id, department_id, category_id, topic_id, brand_id, source)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
ON CONFLICT (document_id) DO UPDATE SET
	department_id = EXCLUDED.department_id,
	category_id = EXCLUDED.category_id,
	topic_id = EXCLUDED.topic_id,
	brand_id = EXCLUDED.brand_id,
	source = EXCLUDED.source
`, meta.ID, doc.ID, meta.DepartmentID, meta.CategoryID, meta.TopicID, meta.BrandID, string(meta.Source))
	if err != nil {
		return fmt.Errorf("upsert technical metadata: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_models WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear document models: %w", err)
	}
	for _, model := range batch.Models {
		_, err := tx.ExecContext(ctx, `
INSERT INTO document_models (document_id, model_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, doc.ID, model.ID)
		if err != nil {
			return fmt.Errorf("link document model %q: %w", model.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear document tags: %w", err)
	}
	for _, tag := range batch.Tags {
		var tagID string
		err := tx.QueryRowContext(ctx, `
INSERT INTO tags (id, name) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`, uuid.NewString(), tag).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", tag, err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO document_tags (document_id, tag_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, doc.ID, tagID)
		if err != nil {
			return fmt.Errorf("link document tag %q: %w", tag, err)
		}
	}

	return nil
}

// Clean truncates all ingestion tables in FK order. Meant for the
// clean subcommand before a full re-import.
func (r *DocumentRepository) Clean(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clean tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	tables := []string{
		"document_tags",
		"document_models",
		"technical_metadata",
		"documents",
		"file_assets",
		"tags",
		"machine_models",
		"brands",
		"topics",
		"categories",
		"departments",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("clean %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clean tx: %w", err)
	}
	return nil
}

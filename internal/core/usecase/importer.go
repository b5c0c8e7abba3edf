package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"office-archive-indexer/internal/core/domain"
	"office-archive-indexer/internal/core/ports"
)

const (
	ModeFast = "fast"
	ModeFull = "full"

	placeholderContent = "[no extractable text]"
)

// ImporterMetrics is the run-level instrumentation hook.
type ImporterMetrics interface {
	StartFile()
	FinishFile(outcome domain.FileOutcome, duration time.Duration)
}

// ImportUseCase walks an archive tree sequentially and ingests every
// regular file: one file fully classified, parsed, uploaded and
// committed before the next begins. Per-file failures land in the run
// summary; only a broken walk aborts the run.
type ImportUseCase struct {
	classifier ports.Classifier
	documents  ports.DocumentStore
	storage    ports.ObjectStorage
	parsers    ports.ParserRegistry
	events     ports.EventPublisher
	metrics    ImporterMetrics
	logger     *slog.Logger
}

func NewImportUseCase(
	classifier ports.Classifier,
	documents ports.DocumentStore,
	storage ports.ObjectStorage,
	parsers ports.ParserRegistry,
	events ports.EventPublisher,
	metrics ImporterMetrics,
	logger *slog.Logger,
) *ImportUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportUseCase{
		classifier: classifier,
		documents:  documents,
		storage:    storage,
		parsers:    parsers,
		events:     events,
		metrics:    metrics,
		logger:     logger,
	}
}

func (uc *ImportUseCase) Run(ctx context.Context, target string, mode string) (*domain.ImportSummary, error) {
	root, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve target %q: %w", target, err)
	}

	summary := &domain.ImportSummary{}
	useAI := mode == ModeFull

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != root && skipName(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipName(name) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		summary.Scanned++
		uc.startFile()
		started := time.Now()

		outcome, fileErr := uc.importFile(ctx, root, path, name, useAI)
		uc.finishFile(outcome, time.Since(started))

		switch outcome {
		case domain.OutcomeImported:
			summary.Imported++
		case domain.OutcomeSkipped:
			summary.Skipped++
		case domain.OutcomeFailed:
			summary.Failed++
			summary.Errors = append(summary.Errors, domain.FileError{
				Path:    path,
				Message: fileErr.Error(),
			})
			uc.logger.Error("file import failed", "path", path, "error", fileErr)
		}
		return nil
	})
	if walkErr != nil {
		return summary, fmt.Errorf("walk %q: %w", root, walkErr)
	}
	return summary, nil
}

// skipName filters dotfiles, editor backups and Windows thumbnails.
func skipName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return true
	}
	return strings.EqualFold(name, "Thumbs.db")
}

func (uc *ImportUseCase) importFile(ctx context.Context, root, path, fileName string, useAI bool) (domain.FileOutcome, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("relativize %q: %w", path, err)
	}
	segments := pathSegments(rel)

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("read file: %w", err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	asset, err := uc.documents.GetAssetByHash(ctx, hash)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return domain.OutcomeFailed, fmt.Errorf("asset lookup: %w", err)
	}
	assetIsNew := asset == nil

	classification, err := uc.classifier.Classify(ctx, segments, fileName, useAI)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("classify: %w", err)
	}

	title := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	existingDoc, err := uc.documents.FindDocumentByTitleAndTopic(ctx, title, classification.Topic.ID)
	if err != nil && !domain.IsKind(err, domain.ErrNotFound) {
		return domain.OutcomeFailed, fmt.Errorf("document lookup: %w", err)
	}
	if !assetIsNew && existingDoc != nil {
		uc.logger.Info("duplicate file skipped", "path", path, "hash", hash)
		return domain.OutcomeSkipped, nil
	}

	mimeType := uc.parsers.MimeByExtension(filepath.Ext(fileName))
	content := uc.parseContent(ctx, data, fileName, mimeType)

	if assetIsNew {
		asset, err = uc.uploadAsset(ctx, rel, data, hash, mimeType)
		if err != nil {
			return domain.OutcomeFailed, err
		}
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Title:     title,
		TopicID:   classification.Topic.ID,
		AssetID:   asset.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existingDoc != nil {
		doc.ID = existingDoc.ID
		doc.CreatedAt = existingDoc.CreatedAt
	}

	batch := &domain.ImportBatch{
		Asset:      asset,
		AssetIsNew: assetIsNew,
		Document:   doc,
		Metadata: &domain.TechnicalMetadata{
			ID:           uuid.NewString(),
			DocumentID:   doc.ID,
			DepartmentID: classification.Department.ID,
			CategoryID:   classification.Category.ID,
			TopicID:      classification.Topic.ID,
			Source:       classification.Source,
		},
		Models: classification.Models,
		Tags:   classification.Tags,
	}
	if classification.Brand != nil {
		batch.Metadata.BrandID = classification.Brand.ID
	}

	if err := uc.documents.CommitImport(ctx, batch); err != nil {
		return domain.OutcomeFailed, fmt.Errorf("commit: %w", err)
	}

	if uc.events != nil {
		if err := uc.events.PublishDocumentIndexed(ctx, doc.ID); err != nil {
			uc.logger.Warn("indexed event publish failed", "document_id", doc.ID, "error", err)
		}
	}
	return domain.OutcomeImported, nil
}

// parseContent runs the registered parser for the MIME type. A missing
// parser or a parse failure falls back to a placeholder body.
func (uc *ImportUseCase) parseContent(ctx context.Context, data []byte, fileName, mimeType string) string {
	p := uc.parsers.Get(mimeType)
	if p == nil {
		return placeholderContent
	}
	parsed, err := p.Parse(ctx, data, fileName, mimeType)
	if err != nil || parsed == nil || strings.TrimSpace(parsed.Content) == "" {
		if err != nil {
			uc.logger.Warn("content extraction failed, using placeholder",
				"file", fileName, "mime", mimeType, "error", err)
		}
		return placeholderContent
	}
	return parsed.Content
}

func (uc *ImportUseCase) uploadAsset(ctx context.Context, rel string, data []byte, hash, mimeType string) (*domain.FileAsset, error) {
	key := filepath.ToSlash(rel)
	stored, err := uc.storage.Upload(ctx, key, bytes.NewReader(data), mimeType)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return &domain.FileAsset{
		ID:          uuid.NewString(),
		Hash:        hash,
		StoragePath: stored.Key,
		Bucket:      stored.Bucket,
		MimeType:    mimeType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func pathSegments(rel string) []string {
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil
	}
	return strings.Split(filepath.ToSlash(dir), "/")
}

func (uc *ImportUseCase) startFile() {
	if uc.metrics != nil {
		uc.metrics.StartFile()
	}
}

func (uc *ImportUseCase) finishFile(outcome domain.FileOutcome, duration time.Duration) {
	if uc.metrics != nil {
		uc.metrics.FinishFile(outcome, duration)
	}
}

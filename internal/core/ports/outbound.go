package ports

import (
	"context"
	"io"

	"office-archive-indexer/internal/core/domain"
)

// TaxonomyStore persists the classification hierarchy. Upsert methods
// are atomic on the natural key; Create methods report lost races as
// domain.ErrUniqueViolation so callers can refetch.
type TaxonomyStore interface {
	UpsertDepartment(ctx context.Context, name string) (*domain.Department, error)
	UpsertCategory(ctx context.Context, name string) (*domain.Category, error)
	GetTopic(ctx context.Context, categoryID, slug string) (*domain.Topic, error)
	CreateTopic(ctx context.Context, topic *domain.Topic) error
	UpsertBrand(ctx context.Context, name string) (*domain.Brand, error)
	GetModelByName(ctx context.Context, name string) (*domain.MachineModel, error)
	CreateModel(ctx context.Context, model *domain.MachineModel) error
	SetModelBrand(ctx context.Context, modelID, brandID string) error
}

// DocumentStore persists documents, assets and their relation rows.
type DocumentStore interface {
	GetAssetByHash(ctx context.Context, hash string) (*domain.FileAsset, error)
	FindDocumentByTitleAndTopic(ctx context.Context, title, topicID string) (*domain.Document, error)
	CommitImport(ctx context.Context, batch *domain.ImportBatch) error
	Clean(ctx context.Context) error
}

// ObjectStorage stores file blobs. Implementations must degrade rather
// than fail: ingestion proceeds even when the backend is down.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, mimeType string) (*domain.StoredObject, error)
}

// BrandExtractor is the deterministic text-analysis contract.
type BrandExtractor interface {
	Brand(raw string) (string, bool)
	SeriesAndModels(fileName string) domain.SeriesScan
	ExpandModels(raw string) []string
	IsSeriesLabel(s string) bool
}

// HintProvider calls the probabilistic classifier. An error means "no
// hint"; callers degrade to deterministic extraction.
type HintProvider interface {
	Analyze(ctx context.Context, fileName string, pathSegments []string) (*domain.ClassificationHint, error)
}

// Parser converts raw file bytes to text content.
type Parser interface {
	Parse(ctx context.Context, data []byte, name, mimeType string) (*domain.ParsedContent, error)
}

// ParserRegistry resolves a Parser by MIME type; nil when none is
// registered for the type.
type ParserRegistry interface {
	Get(mimeType string) Parser
	MimeByExtension(ext string) string
}

// EventPublisher announces committed documents to downstream consumers.
type EventPublisher interface {
	PublishDocumentIndexed(ctx context.Context, documentID string) error
}

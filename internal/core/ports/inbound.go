package ports

import (
	"context"

	"office-archive-indexer/internal/core/domain"
)

// Classifier is the inbound contract for turning a walked path and
// filename into taxonomy facts.
type Classifier interface {
	Classify(ctx context.Context, pathSegments []string, fileName string, useAI bool) (*domain.Classification, error)
}

// Importer is the inbound contract for one archive import run.
type Importer interface {
	Run(ctx context.Context, target string, mode string) (*domain.ImportSummary, error)
}

// Package bootstrap wires configuration into the ports the commands
// consume.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"office-archive-indexer/internal/config"
	"office-archive-indexer/internal/core/ports"
	"office-archive-indexer/internal/core/usecase"
	"office-archive-indexer/internal/infrastructure/extract"
	"office-archive-indexer/internal/infrastructure/llm/ollama"
	"office-archive-indexer/internal/infrastructure/parser"
	"office-archive-indexer/internal/infrastructure/queue/nats"
	"office-archive-indexer/internal/infrastructure/repository/postgres"
	"office-archive-indexer/internal/infrastructure/storage"
	"office-archive-indexer/internal/infrastructure/storage/localfs"
	"office-archive-indexer/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Importer  ports.Importer
	Documents ports.DocumentStore
	Metrics   *metrics.ImporterMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	taxonomy := postgres.NewTaxonomyRepository(db)
	documents := postgres.NewDocumentRepository(db, cfg.TxAcquireTimeout, cfg.TxCommitTimeout)

	extractor, err := newExtractor(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	local, err := localfs.New(cfg.StoragePath, cfg.StorageBucket)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	objectStorage := storage.NewResilient(local, cfg.StorageUploadRetries, 0, logger)

	analyzer := ollama.NewAnalyzer(
		ollama.New(cfg.OllamaURL, cfg.OllamaModel),
		ollama.AnalyzerOptions{
			CallInterval:     cfg.AICallInterval,
			RateLimitRetries: cfg.AIRateLimitRetries,
			RateLimitBackoff: cfg.AIRateLimitBackoff,
		},
	)

	var publisher ports.EventPublisher
	var closeQueue func()
	if cfg.NATSEnabled {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = queue
		closeQueue = queue.Close
	}

	importerMetrics := metrics.NewImporterMetrics("importer")
	classifier := usecase.NewClassifyUseCase(taxonomy, extractor, analyzer, logger)
	importer := usecase.NewImportUseCase(
		classifier, documents, objectStorage, parser.NewRegistry(),
		publisher, importerMetrics, logger,
	)

	return &App{
		Config:    cfg,
		Importer:  importer,
		Documents: documents,
		Metrics:   importerMetrics,

		closeFn: func() {
			if closeQueue != nil {
				closeQueue()
			}
			_ = db.Close()
		},
	}, nil
}

func newExtractor(cfg config.Config) (*extract.Extractor, error) {
	if cfg.LexiconPath == "" {
		return extract.New(), nil
	}
	ext, err := extract.NewWithLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %q: %w", cfg.LexiconPath, err)
	}
	return ext, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

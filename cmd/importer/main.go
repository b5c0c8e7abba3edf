package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"office-archive-indexer/internal/bootstrap"
	"office-archive-indexer/internal/config"
	"office-archive-indexer/internal/core/usecase"
	"office-archive-indexer/internal/observability/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.NewJSONLogger("office-archive-indexer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(ctx, cfg, logger, os.Args[2:])
	case "clean":
		err = runClean(ctx, cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: importer import --target=<dir> [--mode=fast|full] | importer clean")
}

func runImport(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	flags := flag.NewFlagSet("import", flag.ExitOnError)
	target := flags.String("target", "", "archive directory to walk")
	mode := flags.String("mode", usecase.ModeFast, "fast (deterministic only) or full (with AI hints)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return errors.New("--target is required")
	}
	if *mode != usecase.ModeFast && *mode != usecase.ModeFull {
		return fmt.Errorf("unknown mode %q", *mode)
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	metricsServer := serveMetrics(app, logger)
	defer shutdownMetrics(metricsServer, logger)

	logger.Info("import run starting", "target", *target, "mode", *mode)
	started := time.Now()

	summary, err := app.Importer.Run(ctx, *target, *mode)
	if err != nil {
		return err
	}

	// Per-file failures are part of the summary, not a process failure.
	logger.Info("import run finished",
		"duration", time.Since(started).Round(time.Millisecond).String(),
		"scanned", summary.Scanned,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	for _, fileErr := range summary.Errors {
		logger.Warn("file not imported", "path", fileErr.Path, "reason", fileErr.Message)
	}
	return nil
}

func runClean(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Documents.Clean(ctx); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	logger.Info("classification tables cleaned")
	return nil
}

func serveMetrics(app *bootstrap.App, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	server := &http.Server{
		Addr:    ":" + app.Config.MetricsPort,
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	return server
}

func shutdownMetrics(server *http.Server, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quarrylabs/quarry/internal/adapters/driven/ai"
	"github.com/quarrylabs/quarry/internal/adapters/driven/config/file"
	"github.com/quarrylabs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/quarrylabs/quarry/internal/adapters/driving/cli"
	"github.com/quarrylabs/quarry/internal/connectors"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/core/services"
	"github.com/quarrylabs/quarry/internal/logger"
	"github.com/quarrylabs/quarry/internal/normalisers"
	"github.com/quarrylabs/quarry/internal/normalisers/markdown"
	"github.com/quarrylabs/quarry/internal/normalisers/plaintext"
	"github.com/quarrylabs/quarry/internal/postprocessors"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "quarry: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	// A missing or unreachable embedding provider degrades retrieval to
	// keyword-only rather than blocking the whole CLI.
	settings := file.EmbeddingSettingsFrom(configStore)
	embedder, err := ai.CreateAndValidateEmbeddingService(&settings)
	if err != nil {
		logger.Warn("Embedding provider unavailable, using keyword search only: %v", err)
		embedder = nil
	}

	normaliserRegistry := normalisers.NewRegistry()
	normaliserRegistry.Register(markdown.New())
	normaliserRegistry.Register(plaintext.New())

	ingestConfig := file.IngestConfigFrom(configStore)

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	chunkerProc, err := processors.Build("chunker", map[string]any{
		"chunk_size":    ingestConfig.MaxChunkSize,
		"chunk_overlap": ingestConfig.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("building chunker: %w", err)
	}

	ingestService := services.NewIngestService(
		store.DocumentStore(),
		store.IndexStore(),
		postprocessors.NewPipeline(chunkerProc),
		embedder,
		ingestConfig,
	)
	retrieveService := services.NewRetrieveService(
		store.IndexStore(),
		embedder,
		file.RetrievalConfigFrom(configStore),
	)
	registry := services.NewConnectorRegistry()
	sourceService := services.NewSourceService(
		store.SourceStore(),
		store.SyncStateStore(),
		store.DocumentStore(),
		store.IndexStore(),
		registry,
	)
	syncService := services.NewSyncService(
		store.SourceStore(),
		store.SyncStateStore(),
		store.DocumentStore(),
		connectors.NewFactory(),
		normaliserRegistry,
		ingestService,
	)

	// Periodic re-sync only when an interval is configured. The scheduler
	// is handed to the CLI and started by long-running commands.
	var scheduler driving.SchedulerService
	if interval := file.SyncIntervalFrom(configStore); interval > 0 {
		scheduler = services.NewScheduler(interval, syncService)
	}

	cli.SetServices(&cli.Services{
		Retrieve:       retrieveService,
		Source:         sourceService,
		Sync:           syncService,
		Registry:       registry,
		Config:         configStore,
		Documents:      store.DocumentStore(),
		BackgroundSync: scheduler,
	})

	return cli.Execute(ctx, version)
}

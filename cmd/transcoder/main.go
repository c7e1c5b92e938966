package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/reelhouse/transcoder/internal/api"
	"github.com/reelhouse/transcoder/internal/config"
	"github.com/reelhouse/transcoder/internal/db"
	"github.com/reelhouse/transcoder/internal/jobs"
	"github.com/reelhouse/transcoder/internal/media"
	"github.com/reelhouse/transcoder/internal/metrics"
	"github.com/reelhouse/transcoder/internal/pipeline"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the rendition output root exists before any job runs
	if err := os.MkdirAll(cfg.Pipeline.OutputRoot, 0o755); err != nil {
		logger.Fatal("failed to create output root", zap.Error(err))
	}

	// Initialize metadata store
	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	qualityRepo := db.NewVideoQualityRepository(database)

	// Initialize metrics
	m := metrics.New()

	// Job registry lives in memory for the process lifetime; only the
	// rendition rows in the metadata store survive a restart.
	store := jobs.NewStore()

	prober := media.NewProber(cfg.FFmpeg.FFprobePath)
	encoder := media.NewEncoder(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProcessTimeout, logger)

	orchestrator := pipeline.NewOrchestrator(
		cfg.Pipeline.OutputRoot,
		cfg.Pipeline.PublicBasePath,
		store,
		prober,
		encoder,
		qualityRepo,
		logger,
		m,
	)

	janitor := jobs.NewJanitor(store, cfg.Janitor.Interval, cfg.Janitor.Retention, logger, m)
	go janitor.Run(ctx)

	// Initialize handler and router
	handler := api.NewHandler(store, orchestrator, qualityRepo, database, logger, m)
	router := api.NewRouter(handler, logger)
	server := api.NewServer(cfg.API, router, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("transcoder started",
		zap.Int("port", cfg.API.Port),
		zap.String("outputRoot", cfg.Pipeline.OutputRoot),
	)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("received shutdown signal")

	if err := server.Stop(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("transcoder stopped")
}

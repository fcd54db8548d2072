// Package bootstrap provides dependency initialization for the silence-removal API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/silentcut/silentcut-api/internal/config"
	"github.com/silentcut/silentcut-api/internal/encode"
	"github.com/silentcut/silentcut-api/internal/job"
	"github.com/silentcut/silentcut-api/internal/media"
	"github.com/silentcut/silentcut-api/internal/pipeline"
	"github.com/silentcut/silentcut-api/internal/proc"
	"github.com/silentcut/silentcut-api/internal/silence"
	"github.com/silentcut/silentcut-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	TrimService *job.TrimService
	DepsChecker *media.DependencyChecker
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// All external tool invocations go through one runner
	runner := proc.NewExecRunner()

	prober := media.NewFFprobeProber(cfg.FFprobePath, runner)
	detector := silence.NewDetector(cfg.FFmpegPath, runner)
	encoder := encode.NewEncoder(cfg.FFmpegPath, runner, logger)
	copier := media.NewFileCopier()
	depsChecker := media.NewDependencyChecker(cfg.FFmpegPath, cfg.FFprobePath, runner)

	// Each run gets a fresh pipeline so cancellation flags stay per-job
	factory := func(opts ...pipeline.Option) *pipeline.Pipeline {
		return pipeline.New(prober, detector, encoder, copier, depsChecker, logger, opts...)
	}

	// Initialize job repository and service
	repo := job.NewMemoryRepository()
	svc := job.NewTrimService(repo, factory, store, logger)

	return &Dependencies{
		TrimService: svc,
		DepsChecker: depsChecker,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}

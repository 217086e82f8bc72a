package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"visaocr/internal/archive"
	"visaocr/internal/cache"
	"visaocr/internal/config"
	"visaocr/internal/imaging"
	"visaocr/internal/ocr"
	"visaocr/internal/pipeline"
	"visaocr/internal/reports"
)

// loadConfig reads the environment configuration for a command.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, err
	}
	return cfg, nil
}

// createContextWithTimeout returns a context cancelled on timeout or on SIGINT/SIGTERM.
// A zero timeout means no deadline.
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// buildPipeline wires the engine, cache and side effects from cfg. The returned
// cleanup releases everything that was opened and must be called after Wait.
func buildPipeline(ctx context.Context, cfg *config.Config, limits imaging.Limits, log zerolog.Logger) (*pipeline.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	engine, err := createEngine(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() {
		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR engine")
		}
	})

	store, closeStore := createCache(ctx, cfg, log)
	closers = append(closers, closeStore)

	archiver, closeArchiver, err := createArchiver(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeArchiver)

	sink, err := createReportSink(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc := pipeline.New(pipeline.Config{
		Engine:     engine,
		Cache:      store,
		Archiver:   archiver,
		Reports:    sink,
		Limits:     limits,
		MaxWidth:   cfg.ResizeMaxWidth,
		OCRTimeout: cfg.OCRTimeout,
	})
	return svc, cleanup, nil
}

func createEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Engine, error) {
	engine, err := ocr.New(ctx, cfg.OCRConfig())
	if err != nil {
		return nil, handleEngineError(cfg.OCREngine, err, log)
	}
	log.Debug().Str("engine", engine.Name()).Msg("OCR engine created")
	return engine, nil
}

// createCache always has a local tier. A Redis tier is added when REDIS_URL is
// set; if Redis is unreachable the service runs with the local tier only.
func createCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Store, func()) {
	local := cache.NewMemory(uint64(cfg.CacheMaxEntries), cfg.CacheTTL)
	if cfg.RedisURL == "" {
		return local, local.Close
	}

	shared, err := cache.DialRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis cache unavailable, using in-process cache only")
		return local, local.Close
	}
	log.Info().Msg("Using tiered result cache (memory + redis)")
	return cache.NewTiered(local, shared), func() {
		local.Close()
		if err := shared.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis cache")
		}
	}
}

func createArchiver(ctx context.Context, cfg *config.Config, log zerolog.Logger) (archive.Archiver, func(), error) {
	switch cfg.ArchiveMode {
	case archive.ModeDirect:
		s3, err := archive.NewS3Archiver(cfg.S3Config())
		if err != nil {
			return nil, nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Archiving screenshots to object storage")
		return s3, func() {}, nil
	case archive.ModeQueue:
		q, err := archive.NewQueueArchiver(cfg.RedisURL, cfg.ArchiveQueue)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("queue", cfg.ArchiveQueue).Msg("Queueing screenshots for archiving")
		return q, func() {
			if err := q.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close archive queue client")
			}
		}, nil
	default:
		return archive.Discard{}, func() {}, nil
	}
}

func createReportSink(ctx context.Context, cfg *config.Config, log zerolog.Logger) (reports.Sink, error) {
	if cfg.GoogleSheetURL == "" {
		return reports.Discard{}, nil
	}
	sink, err := reports.NewSheetsSink(ctx, cfg.GoogleSheetURL, cfg.GoogleSheetWorksheet,
		cfg.GoogleCredentials, cfg.GoogleCredentialsFile)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets report sink")
		return nil, fmt.Errorf("failed to create slot report sink: %w", err)
	}
	log.Info().Str("worksheet", cfg.GoogleSheetWorksheet).Msg("Recording slot reports to Google Sheets")
	return sink, nil
}

// handleEngineError turns engine construction failures into actionable messages.
func handleEngineError(engine string, err error, log zerolog.Logger) error {
	log.Error().Err(err).Str("engine", engine).Msg("Failed to create OCR engine")

	switch {
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON\n\n" +
			"3. Use Application Default Credentials (if gcloud is configured):\n" +
			"   gcloud auth application-default login\n\n" +
			"Original error: %w", err)
	case errors.Is(err, ocr.ErrEngineUnavailable):
		return fmt.Errorf("the %s engine is not available in this build (rebuild with -tags tesseract): %w", engine, err)
	case errors.Is(err, ocr.ErrUnknownEngine):
		return fmt.Errorf("unknown OCR engine %q. Set OCR_ENGINE to vision, documentai, tesseract or openai: %w", engine, err)
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("OCR engine %s is misconfigured: %w", engine, err)
	default:
		return fmt.Errorf("failed to create OCR engine: %w", err)
	}
}

// writeJSON writes v as indented JSON to outputPath, or to stdout when it is empty.
func writeJSON(v any, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(data)).
			Msg("Results written to file")
		return nil
	}

	if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"visaocr/internal/logger"
	"visaocr/internal/server"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the screenshot OCR HTTP API",
	Long: `Start the HTTP API. Clients POST a screenshot as the multipart field "file"
to /ocr and receive the extracted consulate and appointment slots as JSON.

Endpoints:
  POST /ocr      screenshot upload
  GET  /health   liveness probe
  GET  /metrics  Prometheus metrics

The OCR engine, cache, archive and report sink are configured from the
environment (see .env.example).`,
	Example: `  # Serve on the configured HTTP_ADDR (default :8000)
  visaocr serve

  # Serve on another port
  visaocr serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().Bool("no-warm", false, "Skip the OCR engine warm-up run")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	noWarm, _ := cmd.Flags().GetBool("no-warm")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}

	ctx, cancel := createContextWithTimeout(0, log)
	defer cancel()

	svc, cleanup, err := buildPipeline(ctx, cfg, cfg.UploadLimits(), log)
	if err != nil {
		return err
	}
	defer cleanup()

	if !noWarm {
		start := time.Now()
		if err := svc.Warm(ctx); err != nil {
			log.Warn().Err(err).Str("engine", svc.EngineName()).Msg("OCR engine warm-up failed")
		} else {
			log.Info().Str("engine", svc.EngineName()).Dur("duration", time.Since(start)).Msg("OCR engine ready")
		}
	}

	srv := server.New(server.Config{
		Addr:              cfg.HTTPAddr,
		MaxUploadBytes:    cfg.UploadLimits().MaxBytes,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		}
		return nil
	})

	err = g.Wait()
	svc.Wait()
	if err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}

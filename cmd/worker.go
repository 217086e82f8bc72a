package cmd

import (
	"github.com/spf13/cobra"

	"visaocr/internal/archive"
	"visaocr/internal/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued screenshot archive tasks",
	Long: `Run the archive worker. With ARCHIVE_MODE=queue the API enqueues every
uncached screenshot on the Redis-backed task queue; this worker uploads them to
the S3-compatible bucket configured by S3_ENDPOINT and S3_BUCKET.

Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().Int("concurrency", 0, "Concurrent uploads (overrides ARCHIVE_CONCURRENCY)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("worker")

	concurrency, _ := cmd.Flags().GetInt("concurrency")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.ArchiveConcurrency = concurrency
	}

	target, err := archive.NewS3Archiver(cfg.S3Config())
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(0, log)
	err = target.EnsureBucket(ctx)
	cancel()
	if err != nil {
		return err
	}

	worker, err := archive.NewWorker(archive.WorkerConfig{
		RedisURL:    cfg.RedisURL,
		Queue:       cfg.ArchiveQueue,
		Concurrency: cfg.ArchiveConcurrency,
		Target:      target,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("queue", cfg.ArchiveQueue).
		Int("concurrency", cfg.ArchiveConcurrency).
		Str("bucket", cfg.S3Bucket).
		Msg("Starting archive worker")
	return worker.Run()
}

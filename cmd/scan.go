package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"visaocr/internal/logger"
	"visaocr/internal/response"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-file]",
	Short: "Extract appointment availability from a screenshot",
	Long: `Run a single screenshot through the same pipeline the HTTP API uses: upload
checks, resize, OCR, screenshot validation and slot extraction. The result is
printed as JSON.

Any decodable image format is accepted from the command line, including WebP.`,
	Example: `  # Print the extraction result
  visaocr scan appointment.png

  # Save the result to a file
  visaocr scan appointment.png -o result.json

  # Use a different engine for this run
  OCR_ENGINE=openai visaocr scan appointment.webp`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// ScanOutput is the JSON written by the scan command.
type ScanOutput struct {
	File               string             `json:"file"`
	FileSize           int64              `json:"file_size"`
	Engine             string             `json:"engine"`
	Fingerprint        string             `json:"fingerprint,omitempty"`
	CacheHit           bool               `json:"cache_hit"`
	ProcessingDuration string             `json:"processing_duration"`
	Result             *response.Response `json:"result"`
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	imagePath := args[0]

	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	// Local files are trusted to be images; the decoder decides.
	limits := cfg.UploadLimits()
	limits.AllowedTypes = nil

	svc, cleanup, err := buildPipeline(ctx, cfg, limits, log)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		log.Error().Err(err).Str("file", imagePath).Msg("Failed to read image file")
		return fmt.Errorf("failed to read image file: %w", err)
	}

	log.Info().
		Str("file", imagePath).
		Int64("size", fileInfo.Size()).
		Str("engine", svc.EngineName()).
		Msg("Scanning screenshot")

	start := time.Now()
	out := svc.Scan(logger.IntoContext(ctx, log), data)
	svc.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("scan was interrupted: %w", ctx.Err())
	}

	ev := log.Info()
	if !out.Response.Success {
		ev = log.Warn().Str("error_code", out.Response.ErrorCode)
	}
	ev.Str("fingerprint", out.Fingerprint).
		Bool("cache_hit", out.CacheHit).
		Dur("duration", time.Since(start)).
		Msg("Scan finished")

	return writeJSON(ScanOutput{
		File:               filepath.Base(imagePath),
		FileSize:           fileInfo.Size(),
		Engine:             svc.EngineName(),
		Fingerprint:        out.Fingerprint,
		CacheHit:           out.CacheHit,
		ProcessingDuration: time.Since(start).String(),
		Result:             out.Response,
	}, outputPath, log)
}

// validateImageFile checks that the path exists and is a non-empty regular file.
func validateImageFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", path)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().Str("file", path).Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if fileInfo.Size() == 0 {
		log.Error().Str("file", path).Msg("Image file is empty")
		return nil, fmt.Errorf("image file is empty: %s", path)
	}
	return fileInfo, nil
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"visaocr/internal/cache"
	"visaocr/internal/extract"
	"visaocr/internal/logger"
	"visaocr/internal/pipeline"
	"visaocr/pkg/models"
)

var parseCmd = &cobra.Command{
	Use:   "parse [text-file]",
	Short: "Extract appointment availability from OCR text",
	Long: `Run already-recognised screenshot text through validation and slot extraction
without calling an OCR engine. Reads from stdin when the file is "-".

With --calendar the text is read as a month calendar widget instead, and the
selectable days of each month are printed.`,
	Example: `  # Parse text saved from an earlier OCR run
  visaocr parse screenshot.txt

  # Pipe text in
  cat screenshot.txt | visaocr parse -

  # Read a calendar widget
  visaocr parse calendar.txt --calendar`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// CalendarOutput is the JSON written by parse --calendar.
type CalendarOutput struct {
	Months []models.CalendarMonth `json:"months"`
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().Bool("calendar", false, "Read the text as a calendar widget")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	outputPath, _ := cmd.Flags().GetString("output")
	calendar, _ := cmd.Flags().GetBool("calendar")

	raw, err := readTextInput(args[0], cmd.InOrStdin())
	if err != nil {
		log.Error().Err(err).Str("file", args[0]).Msg("Failed to read text input")
		return err
	}

	if calendar {
		months := extract.ParseCalendar(raw)
		if months == nil {
			months = []models.CalendarMonth{}
		}
		log.Info().Int("months", len(months)).Msg("Calendar parsed")
		return writeJSON(CalendarOutput{Months: months}, outputPath, log)
	}

	store := cache.NewMemory(1, cache.DefaultTTL)
	defer store.Close()

	svc := pipeline.New(pipeline.Config{Cache: store})
	resp := svc.Process(logger.IntoContext(cmd.Context(), log), raw, "")
	svc.Wait()

	return writeJSON(resp, outputPath, log)
}

func readTextInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

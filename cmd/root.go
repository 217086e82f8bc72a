package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"visaocr/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "visaocr",
	Short: "Visa appointment screenshot OCR",
	Long: `visaocr reads screenshots of visa appointment scheduling pages, extracts the
consulate and the available appointment slots, and caches the structured result
by image fingerprint.

Run "visaocr serve" for the HTTP API, or "visaocr scan" to process a single
screenshot from the command line.`,
	Version:      version,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("visaocr executed without a subcommand")

		fmt.Println("visaocr - visa appointment screenshot OCR")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

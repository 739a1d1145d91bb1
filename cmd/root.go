package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"receiptscan/internal/config"
	"receiptscan/internal/logger"
)

var version = "1.0.0"

// appConfig is nil when the environment failed validation; commands that
// need a backend report that through requireConfig.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "receiptscan",
	Short: "Turn receipt photos into pre-filled receipt records",
	Long: `receiptscan reads a photographed or scanned receipt, recognizes its text
with Google Cloud OCR, and extracts a best-effort structured record: supplier,
transaction date, VAT registration TIN, payment terms, VAT amount, totals and
the purchased items table.

The extracted record is a suggestion meant for review. Fields that cannot be
recognized fall back to empty values, zero amounts or today's date.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("receiptscan executed without subcommand")

		_ = cmd.Help()
	},
}

// Execute runs the root command with the loaded configuration.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		_ = logger.Close()
		os.Exit(1)
	}
}

func requireConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	// Surface the actual validation error
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}

// Package cli provides the plenara command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/plenara-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "plenara",
	Short: "Harvest European Parliament plenary activity",
	Long: `Plenara collects plenary speech transcripts and roll-call vote results
from the European Parliament's public document archive, reconciles member
identities across the two sources, and builds a queryable local corpus.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.plenara)")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadSettings opens the config store and reads the typed settings.
func loadSettings() (file.Settings, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return file.Settings{}, err
	}
	return file.LoadSettings(store), nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Maestro - multi-provider AI orchestrator",
	Long: `Maestro is an open-source orchestrator that runs one prompt across
several AI providers at once, refines weak answers, and fuses the results.

It provides:
  - Multi-provider fan-out (Claude, Gemini, Perplexity, local models)
  - Rule-driven refinement of malformed or low-quality answers
  - Cross-provider contradiction detection and confidence scoring
  - SQLite-backed execution history and rule effectiveness tracking
  - Prometheus metrics and health endpoints

For more information, visit: https://github.com/maestro-hq/maestro`,
	Version: version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

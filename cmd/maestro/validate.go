package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"maestro-hq/maestro/pkg/config"
	"maestro-hq/maestro/pkg/refinement"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file, including environment
variable overrides and the refinement rules file when one is configured.

Examples:
  maestro validate
  maestro validate --config /etc/maestro/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}

		enabled := 0
		for _, pc := range cfg.Providers {
			if pc.ProviderEnabled() {
				enabled++
			}
		}

		fmt.Printf("configuration valid: %s\n", cfgFile)
		fmt.Printf("  providers enabled: %d\n", enabled)
		fmt.Printf("  default mode:      %s\n", cfg.Dispatcher.DefaultMode)
		fmt.Printf("  storage:           %s\n", cfg.Storage.Path)

		if cfg.Refinement.RulesPath != "" {
			rules, err := refinement.LoadRulesFile(cfg.Refinement.RulesPath)
			if err != nil {
				return fmt.Errorf("rules file invalid: %w", err)
			}
			fmt.Printf("  refinement rules:  %d (%s)\n", len(rules), cfg.Refinement.RulesPath)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

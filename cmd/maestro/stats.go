package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"maestro-hq/maestro/pkg/config"
	"maestro-hq/maestro/pkg/store"
)

var statsFlags struct {
	since time.Duration
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect stored execution history",
	Long: `Query the execution history database for aggregate statistics.

Examples:
  # Per-provider performance over the last week
  maestro stats providers

  # Refinement trigger frequency over the last day
  maestro stats triggers --since 24h

  # Execution counts and durations
  maestro stats summary

  # Rolling rule effectiveness
  maestro stats rules`,
}

var statsProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Per-provider success rate, quality and latency",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			rows, err := st.ProviderPerformanceSince(ctx, time.Now().Add(-statsFlags.since))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no requests recorded in window")
				return nil
			}
			fmt.Printf("%-12s %8s %8s %9s %9s %12s\n",
				"PROVIDER", "TOTAL", "DONE", "SUCCESS", "QUALITY", "AVG LATENCY")
			for _, row := range rows {
				fmt.Printf("%-12s %8d %8d %8.1f%% %9.2f %12s\n",
					row.Provider, row.TotalRequests, row.CompletedRequests,
					row.SuccessRate()*100, row.AvgQuality,
					row.AvgResponseTime.Round(time.Millisecond))
			}
			return nil
		})
	},
}

var statsTriggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Refinement trigger frequency",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			rows, err := st.TriggerFrequencySince(ctx, time.Now().Add(-statsFlags.since))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no refinements recorded in window")
				return nil
			}
			fmt.Printf("%-22s %8s %10s\n", "TRIGGER", "COUNT", "RECOVERED")
			for _, row := range rows {
				fmt.Printf("%-22s %8d %10d\n", row.Trigger, row.Count, row.SuccessCount)
			}
			return nil
		})
	},
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Execution counts, durations and modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			summary, err := st.ExecutionSummarySince(ctx, time.Now().Add(-statsFlags.since))
			if err != nil {
				return err
			}
			fmt.Printf("executions:      %d\n", summary.Total)
			fmt.Printf("avg duration:    %s\n", summary.AvgDuration.Round(time.Millisecond))
			fmt.Printf("avg success:     %.1f%%\n", summary.AvgSuccessRate*100)
			for mode, count := range summary.ByMode {
				fmt.Printf("  %-15s %d\n", mode, count)
			}
			return nil
		})
	},
}

var statsRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Rolling refinement rule effectiveness",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			rows, err := st.RuleEffectivenessAll(ctx)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no rule applications recorded")
				return nil
			}
			fmt.Printf("%-44s %8s %9s\n", "RULE", "APPLIED", "SUCCESS")
			for _, row := range rows {
				fmt.Printf("%-44s %8d %8.1f%%\n",
					row.RuleKey, row.Applications, row.SuccessRate()*100)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsProvidersCmd, statsTriggersCmd, statsSummaryCmd, statsRulesCmd)

	statsCmd.PersistentFlags().DurationVar(&statsFlags.since, "since", 7*24*time.Hour, "look-back window")
}

// withStore opens the configured database read path for one query.
func withStore(fn func(context.Context, *store.Store) error) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(&store.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return fn(ctx, st)
}

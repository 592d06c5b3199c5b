package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"maestro-hq/maestro/pkg/config"
	"maestro-hq/maestro/pkg/dispatch"
	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/telemetry/logging"
	"maestro-hq/maestro/pkg/validation"
)

var askFlags struct {
	mode           string
	format         string
	providerList   []string
	priority       int
	quality        float64
	maxRefinements int
	deadline       time.Duration
	fields         []string
	description    string
	jsonOut        bool
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Run one prompt through the orchestrator",
	Long: `Run one prompt across the configured providers and print the
synthesized reply. The execution is recorded in storage like any other.

Examples:
  # Free-form answer from every enabled provider
  maestro ask "What drives the cost of solar power?"

  # Structured JSON with required fields
  maestro ask --format json --field name --field population "Largest city in France"

  # Sequential mode with a tight budget
  maestro ask --mode sequential --deadline 15s "Summarize RFC 9110"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askFlags.mode, "mode", "m", "", "execution mode (parallel, sequential, priority_based, load_balanced)")
	askCmd.Flags().StringVarP(&askFlags.format, "format", "f", "", "output format (json, structured_text, markdown, xml)")
	askCmd.Flags().StringSliceVarP(&askFlags.providerList, "providers", "p", nil, "providers to target (default: all enabled)")
	askCmd.Flags().IntVar(&askFlags.priority, "priority", 0, "base priority, 1..5")
	askCmd.Flags().Float64VarP(&askFlags.quality, "quality", "q", 0, "quality threshold in [0,1]")
	askCmd.Flags().IntVar(&askFlags.maxRefinements, "max-refinements", 0, "refinement budget per provider, 1..10")
	askCmd.Flags().DurationVarP(&askFlags.deadline, "deadline", "d", 0, "wall-clock budget for the execution")
	askCmd.Flags().StringArrayVar(&askFlags.fields, "field", nil, "required schema field, name or name=hint (repeatable)")
	askCmd.Flags().StringVar(&askFlags.description, "description", "", "freeform description of the wanted answer")
	askCmd.Flags().BoolVar(&askFlags.jsonOut, "json", false, "print the full execution record as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Keep interactive output readable unless asked otherwise.
	if !verbose {
		cfg.Telemetry.Logging.Level = "error"
	}
	_, closeLog, err := logging.Setup(cfg.Telemetry.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	req, err := buildRequest(cfg, strings.Join(args, " "))
	if err != nil {
		return err
	}

	record := app.dispatcher.Execute(context.Background(), req)

	if askFlags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	printRecord(record)
	return nil
}

// buildRequest converts the ask flags into a dispatch request. Unset flags
// stay zero so the dispatcher's own defaulting applies.
func buildRequest(cfg *config.Config, prompt string) (*dispatch.Request, error) {
	req := &dispatch.Request{
		Prompt:           prompt,
		Priority:         askFlags.priority,
		QualityThreshold: askFlags.quality,
		MaxRefinements:   askFlags.maxRefinements,
		Deadline:         askFlags.deadline,
	}

	mode := askFlags.mode
	if mode == "" {
		mode = cfg.Dispatcher.DefaultMode
	}
	req.Mode = dispatch.ExecutionMode(mode)
	if mode != "" && !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown execution mode %q", mode)
	}

	if askFlags.format != "" {
		req.Format = validation.OutputFormat(askFlags.format)
		if !req.Format.Valid() {
			return nil, fmt.Errorf("unknown output format %q", askFlags.format)
		}
	}

	for _, name := range askFlags.providerList {
		id := providers.ID(name)
		if !id.Valid() {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		req.Providers = append(req.Providers, id)
	}

	if len(askFlags.fields) > 0 {
		req.Schema.Fields = make(map[string]string, len(askFlags.fields))
		for _, field := range askFlags.fields {
			name, hint, _ := strings.Cut(field, "=")
			if name == "" {
				return nil, fmt.Errorf("empty schema field name in %q", field)
			}
			req.Schema.Fields[name] = hint
		}
	}
	req.Schema.Description = askFlags.description

	if req.Deadline == 0 {
		req.Deadline = cfg.Dispatcher.DefaultDeadline
	}

	return req, nil
}

func printRecord(record *dispatch.ExecutionRecord) {
	if record.Synthesis != nil {
		fmt.Println(record.Synthesis.SynthesizedText)
		fmt.Println()
		fmt.Printf("strategy: %s  confidence: %.2f  providers: %d/%d  elapsed: %s\n",
			record.Synthesis.Strategy,
			record.Synthesis.OverallConfidence,
			completedCount(record),
			len(record.Providers),
			record.ExecutionTime.Round(time.Millisecond),
		)
		for _, c := range record.Synthesis.Contradictions {
			fmt.Printf("contradiction (%s vs %s): %s\n", c.ProviderA, c.ProviderB, c.Topic)
		}
	} else {
		fmt.Println("no provider produced a usable answer")
	}

	ids := make([]string, 0, len(record.PerProvider))
	for id := range record.PerProvider {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		resp := record.PerProvider[providers.ID(id)]
		fmt.Printf("  %-11s %-9s quality=%.2f refinements=%d\n",
			id, resp.Status, resp.QualityScore, resp.RefinementCount)
	}
}

func completedCount(record *dispatch.ExecutionRecord) int {
	n := 0
	for _, resp := range record.PerProvider {
		if resp.Status == refinement.StatusCompleted {
			n++
		}
	}
	return n
}

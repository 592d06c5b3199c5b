package synthesis

import (
	"time"

	"maestro-hq/maestro/pkg/providers"
)

// Strategy selects how answers are fused.
type Strategy string

// The synthesis strategies.
const (
	StrategyMerge      Strategy = "merge"
	StrategyCompare    Strategy = "compare"
	StrategyPrioritize Strategy = "prioritize"
	StrategyComplement Strategy = "complement"
	StrategyFactCheck  Strategy = "fact_check"
)

// Contradiction is one detected disagreement between two providers.
type Contradiction struct {
	// ProviderA and ProviderB are the disagreeing providers
	ProviderA providers.ID
	ProviderB providers.ID

	// Topic is the opposing keyword pair that matched
	Topic string

	// Detail quotes the conflicting claims when they came from key facts
	Detail string
}

// Result is the outcome of one synthesis run.
type Result struct {
	// SynthesizedText is the fused reply
	SynthesizedText string

	// Strategy is the strategy that produced the text
	Strategy Strategy

	// Contributions maps each provider to its normalised share of the
	// result. Shares sum to 1 when any provider succeeded; the map is
	// empty otherwise.
	Contributions map[providers.ID]float64

	// OverallConfidence is the fused confidence in [0,1]
	OverallConfidence float64

	// Contradictions lists detected disagreements
	Contradictions []Contradiction

	// UniqueInsights maps each provider to facts no other provider stated
	UniqueInsights map[providers.ID][]string

	// Sources is the union of per-answer sources
	Sources []string

	// ProcessingTime is how long synthesis took
	ProcessingTime time.Duration
}

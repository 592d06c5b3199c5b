package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"maestro-hq/maestro/pkg/analysis"
	"maestro-hq/maestro/pkg/llm"
	"maestro-hq/maestro/pkg/providers"
)

// comparativeCues in the original query steer the picker toward the compare
// strategy.
var comparativeCues = []string{"compare", " vs ", "versus", "difference", "better"}

// Config contains configuration for the synthesizer.
type Config struct {
	// FallbackOnly skips LLM fusion and always uses labeled concatenation
	FallbackOnly bool

	// MaxTokens bounds fusion generation length.
	// Default: 1024
	MaxTokens int
}

// Synthesizer fuses analyzed answers into one reply.
type Synthesizer struct {
	generator llm.Generator
	config    Config
	logger    *slog.Logger
}

// NewSynthesizer creates a synthesizer. generator is required unless
// FallbackOnly is set.
func NewSynthesizer(generator llm.Generator, config Config) *Synthesizer {
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}
	return &Synthesizer{
		generator: generator,
		config:    config,
		logger:    slog.Default().With("component", "synthesis"),
	}
}

// Synthesize fuses the surviving answers for the given original query.
// With no answers it returns a diagnostic result with empty contributions.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, answers []*analysis.AnalyzedAnswer) *Result {
	start := time.Now()

	if len(answers) == 0 {
		return &Result{
			SynthesizedText: "No provider produced a successful response.",
			Strategy:        StrategyMerge,
			Contributions:   map[providers.ID]float64{},
			ProcessingTime:  time.Since(start),
		}
	}

	contradictions := DetectContradictions(answers)
	strategy := pickStrategy(query, answers, contradictions)

	text := s.fuse(ctx, strategy, query, answers, contradictions)

	result := &Result{
		SynthesizedText:   text,
		Strategy:          strategy,
		Contributions:     contributions(answers),
		OverallConfidence: overallConfidence(answers, contradictions),
		Contradictions:    contradictions,
		UniqueInsights:    uniqueInsights(answers),
		Sources:           mergedSources(answers),
		ProcessingTime:    time.Since(start),
	}

	s.logger.Info("synthesis complete",
		"strategy", strategy,
		"answers", len(answers),
		"contradictions", len(contradictions),
		"overall_confidence", result.OverallConfidence,
		"processing_time", result.ProcessingTime,
	)

	return result
}

// pickStrategy applies the first-match-wins cascade.
func pickStrategy(query string, answers []*analysis.AnalyzedAnswer, contradictions []Contradiction) Strategy {
	if len(answers) == 1 {
		return StrategyMerge
	}
	if len(contradictions) > 0 {
		return StrategyFactCheck
	}
	if distinctContentTypes(answers) > 1 {
		return StrategyComplement
	}
	lower := strings.ToLower(query)
	for _, cue := range comparativeCues {
		if strings.Contains(lower, cue) {
			return StrategyCompare
		}
	}
	if len(answers) >= 3 {
		return StrategyMerge
	}
	return StrategyPrioritize
}

// distinctContentTypes counts the distinct content types across answers.
func distinctContentTypes(answers []*analysis.AnalyzedAnswer) int {
	types := make(map[analysis.ContentType]struct{})
	for _, answer := range answers {
		types[answer.ContentType] = struct{}{}
	}
	return len(types)
}

// fuse produces the synthesized text for the chosen strategy, falling back
// to labeled concatenation when the local LLM is unavailable or errors.
func (s *Synthesizer) fuse(ctx context.Context, strategy Strategy, query string, answers []*analysis.AnalyzedAnswer, contradictions []Contradiction) string {
	if len(answers) == 1 {
		return answers[0].Content
	}

	if !s.config.FallbackOnly && s.generator != nil {
		if text, err := s.fuseLLM(ctx, strategy, query, answers, contradictions); err == nil {
			return text
		} else {
			s.logger.Warn("LLM fusion failed, using fallback", "strategy", strategy, "error", err)
		}
	}

	return s.fallback(strategy, answers)
}

// fuseLLM renders the strategy's fusion instruction and asks the local LLM.
func (s *Synthesizer) fuseLLM(ctx context.Context, strategy Strategy, query string, answers []*analysis.AnalyzedAnswer, contradictions []Contradiction) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n\n", query)
	for _, answer := range answers {
		fmt.Fprintf(&b, "--- Answer from %s (%s, confidence %.2f) ---\n%s\n\n",
			answer.Provider, answer.ContentType, answer.Confidence, answer.Content)
	}

	system := fusionInstructions[strategy]
	if strategy == StrategyFactCheck && len(contradictions) > 0 {
		var topics []string
		for _, c := range contradictions {
			topics = append(topics, c.Topic)
		}
		b.WriteString("Known conflicts: " + strings.Join(topics, ", ") + "\n")
	}

	text, _, err := s.generator.Generate(ctx, b.String(), system, s.config.MaxTokens, 0.3)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("synthesis: fuser returned empty text")
	}
	return text, nil
}

// fusionInstructions are the per-strategy system prompts for the fuser.
var fusionInstructions = map[Strategy]string{
	StrategyMerge:      "Integrate the answers into one coherent response. Remove redundancy but preserve every unique factual claim.",
	StrategyCompare:    "Write a balanced comparative analysis of the answers, naming each source and where they agree or differ.",
	StrategyPrioritize: "Use the highest-confidence answer as the backbone and weave in supporting details from the others.",
	StrategyComplement: "The answers cover different perspectives. Show how they complement each other into a fuller picture.",
	StrategyFactCheck:  "The answers conflict. Call out each conflicting claim, rank the sources by credibility, and state residual uncertainty explicitly.",
}

// fallback produces deterministic output without the LLM.
func (s *Synthesizer) fallback(strategy Strategy, answers []*analysis.AnalyzedAnswer) string {
	sorted := make([]*analysis.AnalyzedAnswer, len(answers))
	copy(sorted, answers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var b strings.Builder
	switch strategy {
	case StrategyPrioritize:
		b.WriteString(sorted[0].Content)
		b.WriteString("\n\nSupporting details:\n")
		for _, answer := range sorted[1:] {
			fmt.Fprintf(&b, "\n[%s]\n%s\n", answer.Provider, answer.Content)
		}
	default:
		for _, answer := range sorted {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", answer.Provider, answer.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

// contributions normalises per-answer confidence into shares summing to 1.
// All-zero confidences yield a uniform split.
func contributions(answers []*analysis.AnalyzedAnswer) map[providers.ID]float64 {
	shares := make(map[providers.ID]float64, len(answers))

	var total float64
	for _, answer := range answers {
		total += answer.Confidence
	}

	if total == 0 {
		uniform := 1.0 / float64(len(answers))
		for _, answer := range answers {
			shares[answer.Provider] = uniform
		}
		return shares
	}

	for _, answer := range answers {
		shares[answer.Provider] = answer.Confidence / total
	}
	return shares
}

// overallConfidence is the mean confidence plus an agreement bonus of
// min(0.05*N, 0.2), minus 0.1 per contradiction, clamped to [0,1].
func overallConfidence(answers []*analysis.AnalyzedAnswer, contradictions []Contradiction) float64 {
	var sum float64
	for _, answer := range answers {
		sum += answer.Confidence
	}
	mean := sum / float64(len(answers))

	bonus := 0.05 * float64(len(answers))
	if bonus > 0.2 {
		bonus = 0.2
	}

	confidence := mean + bonus - 0.1*float64(len(contradictions))
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// uniqueInsights maps each provider to key facts no other provider stated.
func uniqueInsights(answers []*analysis.AnalyzedAnswer) map[providers.ID][]string {
	insights := make(map[providers.ID][]string)

	for i, answer := range answers {
		for _, fact := range answer.KeyFacts {
			lower := strings.ToLower(fact)
			unique := true
			for j, other := range answers {
				if i == j {
					continue
				}
				for _, otherFact := range other.KeyFacts {
					if strings.ToLower(otherFact) == lower {
						unique = false
						break
					}
				}
				if !unique {
					break
				}
			}
			if unique {
				insights[answer.Provider] = append(insights[answer.Provider], fact)
			}
		}
	}
	return insights
}

// mergedSources unions per-answer sources preserving first appearance.
func mergedSources(answers []*analysis.AnalyzedAnswer) []string {
	var sources []string
	seen := make(map[string]struct{})
	for _, answer := range answers {
		for _, source := range answer.Sources {
			if _, dup := seen[source]; dup {
				continue
			}
			seen[source] = struct{}{}
			sources = append(sources, source)
		}
	}
	return sources
}

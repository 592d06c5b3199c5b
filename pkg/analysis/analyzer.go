package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"maestro-hq/maestro/pkg/llm"
	"maestro-hq/maestro/pkg/providers"
	"maestro-hq/maestro/pkg/refinement"
)

// extractionSystemPrompt is the fixed system prompt for key-fact extraction.
const extractionSystemPrompt = "You extract facts. Output one fact per line, no numbering, no commentary."

// hedgingWords lower an answer's confidence when present.
var hedgingWords = []string{
	"maybe", "perhaps", "possibly", "might be", "could be",
	"i think", "not sure", "unclear",
}

// Analyzer classifies and scores provider answers. It is safe for concurrent
// use; the local LLM client it holds is shared and thread-safe.
type Analyzer struct {
	generator llm.Generator
	weights   map[providers.ID]float64
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer. weights holds the per-provider reliability
// weights seeding confidence scores; generator may be nil, in which case
// key-fact extraction is skipped.
func NewAnalyzer(generator llm.Generator, weights map[providers.ID]float64) *Analyzer {
	return &Analyzer{
		generator: generator,
		weights:   weights,
		logger:    slog.Default().With("component", "analysis"),
	}
}

// Analyze processes one completed response into an AnalyzedAnswer.
func (a *Analyzer) Analyze(ctx context.Context, resp *refinement.ResponseRecord) *AnalyzedAnswer {
	answer := &AnalyzedAnswer{
		Provider:     resp.Provider,
		Content:      resp.RawText,
		ResponseTime: resp.ResponseTime,
		Status:       resp.Status,
		ContentType:  Classify(resp.RawText),
		Sources:      ExtractSources(resp.RawText),
	}

	answer.KeyFacts = a.extractKeyFacts(ctx, resp.RawText)
	answer.Confidence = a.confidence(resp)

	a.logger.Debug("analyzed answer",
		"provider", resp.Provider,
		"content_type", answer.ContentType,
		"confidence", answer.Confidence,
		"key_facts", len(answer.KeyFacts),
		"sources", len(answer.Sources),
	)

	return answer
}

// extractKeyFacts asks the local LLM for the answer's key facts and parses
// them line by line, capped at maxKeyFacts. Extraction failures degrade to an
// empty fact list rather than failing the analysis.
func (a *Analyzer) extractKeyFacts(ctx context.Context, content string) []string {
	if a.generator == nil || strings.TrimSpace(content) == "" {
		return nil
	}

	prompt := "Extract the key facts from this text:\n\n" + content
	text, _, err := a.generator.Generate(ctx, prompt, extractionSystemPrompt, 512, 0.0)
	if err != nil {
		a.logger.Warn("key-fact extraction failed", "error", err)
		return nil
	}

	var facts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if line == "" {
			continue
		}
		facts = append(facts, line)
		if len(facts) == maxKeyFacts {
			break
		}
	}
	return facts
}

// confidence computes the answer's confidence score: the provider's
// reliability weight adjusted multiplicatively for length, latency, and
// hedging, clamped to [0,1].
func (a *Analyzer) confidence(resp *refinement.ResponseRecord) float64 {
	score, ok := a.weights[resp.Provider]
	if !ok {
		score = 0.5
	}

	length := len(resp.RawText)
	switch {
	case length < 50:
		score *= 0.7
	case length > 500:
		score *= 1.1
	}

	switch {
	case resp.ResponseTime > 0 && resp.ResponseTime < 2*time.Second:
		score *= 1.05
	case resp.ResponseTime > 30*time.Second:
		score *= 0.9
	}

	lower := strings.ToLower(resp.RawText)
	for _, word := range hedgingWords {
		if strings.Contains(lower, word) {
			score *= 0.8
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

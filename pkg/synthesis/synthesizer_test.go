package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"maestro-hq/maestro/internal/providertest"
	"maestro-hq/maestro/pkg/analysis"
	"maestro-hq/maestro/pkg/providers"
)

func answer(provider providers.ID, content string, confidence float64) *analysis.AnalyzedAnswer {
	return &analysis.AnalyzedAnswer{
		Provider:    provider,
		Content:     content,
		Confidence:  confidence,
		ContentType: analysis.ContentFactual,
	}
}

func TestSynthesizeNoAnswers(t *testing.T) {
	s := NewSynthesizer(nil, Config{FallbackOnly: true})

	result := s.Synthesize(context.Background(), "anything", nil)

	if result.SynthesizedText == "" {
		t.Error("expected a diagnostic message for zero answers")
	}
	if len(result.Contributions) != 0 {
		t.Errorf("contributions = %v, want empty", result.Contributions)
	}
	if result.OverallConfidence != 0 {
		t.Errorf("confidence = %v, want 0", result.OverallConfidence)
	}
}

func TestSynthesizeSingleAnswerPassesThrough(t *testing.T) {
	s := NewSynthesizer(nil, Config{FallbackOnly: true})
	a := answer(providers.Claude, "Ganymede is the largest moon.", 0.9)

	result := s.Synthesize(context.Background(), "largest moon?", []*analysis.AnalyzedAnswer{a})

	if result.SynthesizedText != a.Content {
		t.Errorf("text = %q, want the single answer verbatim", result.SynthesizedText)
	}
	if result.Strategy != StrategyMerge {
		t.Errorf("strategy = %q, want merge", result.Strategy)
	}
	if result.Contributions[providers.Claude] != 1.0 {
		t.Errorf("contribution = %v, want 1.0", result.Contributions[providers.Claude])
	}
}

func TestPickStrategy(t *testing.T) {
	plain := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "a", 0.9),
		answer(providers.Gemini, "b", 0.8),
	}
	mixedTypes := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "a", 0.9),
		{Provider: providers.Gemini, Content: "b", Confidence: 0.8, ContentType: analysis.ContentTechnical},
	}
	three := append(plain[:2:2], answer(providers.Perplexity, "c", 0.7))

	tests := []struct {
		name           string
		query          string
		answers        []*analysis.AnalyzedAnswer
		contradictions []Contradiction
		want           Strategy
	}{
		{"contradictions win", "q", plain, []Contradiction{{}}, StrategyFactCheck},
		{"mixed content types complement", "q", mixedTypes, nil, StrategyComplement},
		{"comparative query", "compare these options", plain, nil, StrategyCompare},
		{"three homogeneous answers merge", "q", three, nil, StrategyMerge},
		{"two homogeneous answers prioritize", "q", plain, nil, StrategyPrioritize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickStrategy(tt.query, tt.answers, tt.contradictions)
			if got != tt.want {
				t.Errorf("pickStrategy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectContradictions(t *testing.T) {
	a := answer(providers.Claude, "Prices will increase next quarter.", 0.9)
	b := answer(providers.Gemini, "Prices will decrease next quarter.", 0.8)
	c := answer(providers.Perplexity, "Prices will increase, analysts agree.", 0.7)

	contradictions := DetectContradictions([]*analysis.AnalyzedAnswer{a, b, c})

	if len(contradictions) == 0 {
		t.Fatal("expected a contradiction between increase and decrease")
	}

	found := false
	for _, contradiction := range contradictions {
		if contradiction.Topic == "increase/decrease" {
			found = true
		}
	}
	if !found {
		t.Errorf("contradictions %v missing increase/decrease topic", contradictions)
	}

	// Agreeing answers never contradict.
	agree := DetectContradictions([]*analysis.AnalyzedAnswer{a, c})
	if len(agree) != 0 {
		t.Errorf("agreeing answers produced contradictions: %v", agree)
	}
}

func TestDetectContradictionsWillNot(t *testing.T) {
	a := answer(providers.Claude, "The rate will change in March.", 0.9)
	b := answer(providers.Gemini, "The rate will not change in March.", 0.8)

	contradictions := DetectContradictions([]*analysis.AnalyzedAnswer{a, b})

	found := false
	for _, contradiction := range contradictions {
		if contradiction.Topic == "will/will not" {
			found = true
		}
	}
	if !found {
		t.Errorf("contradictions %v missing will/will not topic", contradictions)
	}
}

func TestSynthesizeFactCheckLowersConfidence(t *testing.T) {
	conflicting := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "Prices will increase next quarter.", 0.9),
		answer(providers.Gemini, "Prices will decrease next quarter.", 0.9),
	}
	agreeing := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "Prices will stay flat.", 0.9),
		answer(providers.Gemini, "Prices will stay flat next quarter.", 0.9),
	}

	s := NewSynthesizer(nil, Config{FallbackOnly: true})

	conflicted := s.Synthesize(context.Background(), "price outlook?", conflicting)
	agreed := s.Synthesize(context.Background(), "price outlook?", agreeing)

	if conflicted.Strategy != StrategyFactCheck {
		t.Errorf("strategy = %q, want fact_check", conflicted.Strategy)
	}
	if len(conflicted.Contradictions) == 0 {
		t.Error("expected recorded contradictions")
	}
	if conflicted.OverallConfidence >= agreed.OverallConfidence {
		t.Errorf("conflicted confidence %v should be below agreed %v",
			conflicted.OverallConfidence, agreed.OverallConfidence)
	}
}

func TestSynthesizeLLMFusion(t *testing.T) {
	gen := providertest.NewGenerator("Fused reply covering both answers.")
	s := NewSynthesizer(gen, Config{})

	answers := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "Answer one.", 0.9),
		answer(providers.Gemini, "Answer two.", 0.6),
	}
	result := s.Synthesize(context.Background(), "q", answers)

	if result.SynthesizedText != "Fused reply covering both answers." {
		t.Errorf("text = %q, want the fused reply", result.SynthesizedText)
	}

	prompts := gen.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(prompts))
	}
	for _, want := range []string{"Answer one.", "Answer two.", "claude", "gemini"} {
		if !strings.Contains(prompts[0], want) {
			t.Errorf("fusion prompt missing %q", want)
		}
	}
}

func TestSynthesizeFallsBackWhenLLMFails(t *testing.T) {
	gen := providertest.NewFailingGenerator(errors.New("model server down"))
	s := NewSynthesizer(gen, Config{})

	answers := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "High confidence answer.", 0.9),
		answer(providers.Gemini, "Low confidence answer.", 0.4),
	}
	result := s.Synthesize(context.Background(), "q", answers)

	if !strings.Contains(result.SynthesizedText, "High confidence answer.") {
		t.Errorf("fallback text missing answers: %q", result.SynthesizedText)
	}
	if !strings.Contains(result.SynthesizedText, "[gemini]") {
		t.Errorf("fallback text missing provider label: %q", result.SynthesizedText)
	}
}

func TestContributionsNormalised(t *testing.T) {
	answers := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "a", 0.6),
		answer(providers.Gemini, "b", 0.2),
	}

	shares := contributions(answers)

	if diff := shares[providers.Claude] - 0.75; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("claude share = %v, want 0.75", shares[providers.Claude])
	}

	var sum float64
	for _, share := range shares {
		sum += share
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("shares sum to %v, want 1", sum)
	}
}

func TestContributionsAllZeroUniform(t *testing.T) {
	answers := []*analysis.AnalyzedAnswer{
		answer(providers.Claude, "a", 0),
		answer(providers.Gemini, "b", 0),
	}

	shares := contributions(answers)
	if shares[providers.Claude] != 0.5 || shares[providers.Gemini] != 0.5 {
		t.Errorf("shares = %v, want uniform 0.5", shares)
	}
}

func TestUniqueInsights(t *testing.T) {
	a := answer(providers.Claude, "a", 0.9)
	a.KeyFacts = []string{"Ganymede is largest", "Moons are icy"}
	b := answer(providers.Gemini, "b", 0.8)
	b.KeyFacts = []string{"moons are icy", "Io is volcanic"}

	insights := uniqueInsights([]*analysis.AnalyzedAnswer{a, b})

	if got := insights[providers.Claude]; len(got) != 1 || got[0] != "Ganymede is largest" {
		t.Errorf("claude insights = %v, want only the unshared fact", got)
	}
	if got := insights[providers.Gemini]; len(got) != 1 || got[0] != "Io is volcanic" {
		t.Errorf("gemini insights = %v, want only the unshared fact", got)
	}
}

func TestOverallConfidenceClamped(t *testing.T) {
	many := make([]*analysis.AnalyzedAnswer, 4)
	for i := range many {
		many[i] = answer(providers.ID("p"), "x", 1.0)
	}

	if got := overallConfidence(many, nil); got != 1.0 {
		t.Errorf("confidence = %v, want clamped 1.0", got)
	}

	contradictions := make([]Contradiction, 20)
	if got := overallConfidence(many[:1], contradictions); got != 0 {
		t.Errorf("confidence = %v, want clamped 0", got)
	}
}

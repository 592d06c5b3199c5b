package synthesis

import (
	"fmt"
	"strings"

	"maestro-hq/maestro/pkg/analysis"
)

// opposingPairs is the built-in table of opposing keyword pairs used by the
// contradiction heuristic. The table is deliberately small; it trades recall
// for predictability.
var opposingPairs = [][2]string{
	{"increase", "decrease"},
	{"rise", "fall"},
	{"higher", "lower"},
	{"growth", "decline"},
	{"positive", "negative"},
	{"safe", "unsafe"},
	{"true", "false"},
	{"possible", "impossible"},
	{"will", "will not"},
	{"improve", "worsen"},
}

// DetectContradictions runs pairwise opposing-keyword detection over the
// answers' content and key facts. It reports at most one contradiction per
// (pair of providers, keyword pair).
func DetectContradictions(answers []*analysis.AnalyzedAnswer) []Contradiction {
	var contradictions []Contradiction

	for i := 0; i < len(answers); i++ {
		for j := i + 1; j < len(answers); j++ {
			a, b := answers[i], answers[j]
			lowerA := strings.ToLower(a.Content)
			lowerB := strings.ToLower(b.Content)

			for _, pair := range opposingPairs {
				if oppose(lowerA, lowerB, pair) {
					contradictions = append(contradictions, Contradiction{
						ProviderA: a.Provider,
						ProviderB: b.Provider,
						Topic:     pair[0] + "/" + pair[1],
						Detail:    factDetail(a, b, pair),
					})
				}
			}
		}
	}

	return contradictions
}

// oppose reports whether one text carries one side of the pair and the other
// text carries the opposite side. "will/will not" style pairs need the
// longer phrase checked first so a "will not" match is not mistaken for
// "will".
func oppose(textA, textB string, pair [2]string) bool {
	aFirst := containsSide(textA, pair[0], pair[1])
	aSecond := containsSide(textA, pair[1], pair[0])
	bFirst := containsSide(textB, pair[0], pair[1])
	bSecond := containsSide(textB, pair[1], pair[0])

	return (aFirst && bSecond && !aSecond && !bFirst) ||
		(aSecond && bFirst && !aFirst && !bSecond)
}

// containsSide reports whether text contains side without the occurrence
// being part of other (e.g. "will" inside "will not").
func containsSide(text, side, other string) bool {
	if !strings.Contains(text, side) {
		return false
	}
	if strings.HasPrefix(other, side) {
		// Every occurrence of side might be a prefix of other; require one
		// that is not.
		stripped := strings.ReplaceAll(text, other, "")
		return strings.Contains(stripped, side)
	}
	return true
}

// factDetail quotes key facts from the two answers that carry the opposing
// keywords, when such facts exist.
func factDetail(a, b *analysis.AnalyzedAnswer, pair [2]string) string {
	factA := findFact(a.KeyFacts, pair[0])
	factB := findFact(b.KeyFacts, pair[1])
	if factA == "" || factB == "" {
		factA = findFact(a.KeyFacts, pair[1])
		factB = findFact(b.KeyFacts, pair[0])
	}
	if factA == "" || factB == "" {
		return ""
	}
	return fmt.Sprintf("%s: %q vs %s: %q", a.Provider, factA, b.Provider, factB)
}

func findFact(facts []string, keyword string) string {
	for _, fact := range facts {
		if strings.Contains(strings.ToLower(fact), keyword) {
			return fact
		}
	}
	return ""
}

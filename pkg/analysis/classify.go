package analysis

import "strings"

// Cue tables for the content-type cascade. Order matters: the first matching
// category wins.
var (
	technicalCues = []string{
		"function", "algorithm", "implementation", "compile", "api",
		"database", "protocol", "kernel", "runtime", "code",
	}
	newsCues = []string{
		"reported", "announced", "breaking", "according to reports",
		"yesterday", "this week", "officials said",
	}
	dataCues = []string{
		"percent", "%", "statistics", "average", "median", "dataset",
		"per capita", "growth rate",
	}
	creativeCues = []string{
		"once upon", "imagine", "story", "poem", "metaphor", "verse",
	}
	analyticalCues = []string{
		"on the other hand", "however", "in contrast", "trade-off",
		"implies", "therefore", "consequently", "analysis",
	}
)

// Classify determines an answer's content type through the ordered rule
// cascade: technical, news, data, creative, analytical, factual.
func Classify(content string) ContentType {
	lower := strings.ToLower(content)

	switch {
	case matchesAny(lower, technicalCues):
		return ContentTechnical
	case matchesAny(lower, newsCues):
		return ContentNews
	case matchesAny(lower, dataCues):
		return ContentData
	case matchesAny(lower, creativeCues):
		return ContentCreative
	case matchesAny(lower, analyticalCues):
		return ContentAnalytical
	default:
		return ContentFactual
	}
}

func matchesAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

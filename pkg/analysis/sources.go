package analysis

import (
	"regexp"
	"strings"
)

// Source extraction patterns: URLs, attribution phrases, and bracketed
// citation numbers.
var (
	urlPattern       = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	accordingPattern = regexp.MustCompile(`(?i)according to ([A-Z][\w .&-]{2,40})`)
	sourcePattern    = regexp.MustCompile(`(?i)source:\s*([^\n]{2,80})`)
	bracketPattern   = regexp.MustCompile(`\[(\d{1,3})\]\s*([^\n\[]{4,120})`)
)

// ExtractSources pulls source references out of an answer: URLs, "according
// to X" attributions, "source: Y" lines, and bracketed numeric citations.
// Duplicates are removed; order of first appearance is preserved.
func ExtractSources(content string) []string {
	var sources []string
	seen := make(map[string]struct{})

	add := func(s string) {
		s = strings.TrimSpace(strings.TrimRight(s, ".,;"))
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		sources = append(sources, s)
	}

	for _, match := range urlPattern.FindAllString(content, -1) {
		add(match)
	}
	for _, match := range accordingPattern.FindAllStringSubmatch(content, -1) {
		add(match[1])
	}
	for _, match := range sourcePattern.FindAllStringSubmatch(content, -1) {
		add(match[1])
	}
	for _, match := range bracketPattern.FindAllStringSubmatch(content, -1) {
		add(match[2])
	}

	return sources
}

package shaping

import "strings"

// Template is a prompt template with named holes. A hole is written {name}
// in the template text and filled by Render. Hole names are known up front,
// so literal braces in template bodies (JSON examples, XML snippets) pass
// through untouched.
//
// Template is the only prompt-rendering mechanism in the system; keeping it
// here makes shaping idempotent and refinement prompts testable.
type Template struct {
	// Name identifies the template for logging
	Name string

	// Text is the template body with {hole} placeholders
	Text string
}

// Render fills the template's holes from the given bindings. Holes without a
// binding render as empty strings, so optional sections collapse cleanly.
func (t Template) Render(bindings map[string]string) string {
	out := t.Text
	for name, value := range bindings {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	for _, name := range templateHoles {
		out = strings.ReplaceAll(out, "{"+name+"}", "")
	}
	return strings.TrimSpace(out)
}

// templateHoles is the full set of hole names used across templates. Render
// clears any of these left unbound.
var templateHoles = []string{
	"prompt", "previous_prompt", "issues", "schema", "format",
	"example", "raw_response", "checklist", "provider_hint",
}

package providertest

import (
	"context"
	"sync"
)

// Generator is a scripted llm.Generator. Each Generate call consumes the
// next scripted reply; when the script is exhausted the last reply repeats.
type Generator struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	prompts []string
}

// NewGenerator creates a scripted generator.
func NewGenerator(replies ...string) *Generator {
	return &Generator{replies: replies}
}

// NewFailingGenerator creates a generator whose every call fails.
func NewFailingGenerator(err error) *Generator {
	return &Generator{err: err}
}

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, userPrompt, systemPrompt string, maxTokens int, temperature float64) (string, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, userPrompt)
	g.calls++

	if g.err != nil {
		return "", 0, g.err
	}
	if len(g.replies) == 0 {
		return "", 0, nil
	}

	i := g.calls - 1
	if i >= len(g.replies) {
		i = len(g.replies) - 1
	}
	reply := g.replies[i]
	return reply, len(reply) / 4, nil
}

// Calls returns how many times Generate was invoked.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Prompts returns a copy of every user prompt received, in order.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

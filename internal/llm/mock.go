package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockClient is a deterministic offline implementation used by the mock
// provider and by tests. It sniffs well-known prompt markers and answers with
// plausible structured output so the full pipeline can run without network
// access.
type MockClient struct {
	mu    sync.Mutex
	calls int
}

// NewMockClient returns a fresh mock client.
func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) Name() string { return "mock" }

// Calls reports how many generation requests were issued.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) GenerateText(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	prompt := req.Prompt
	switch {
	case strings.Contains(prompt, `"sections"`):
		return `{"sections": ["hero", "features", "footer"], "reasoning": "standard showcase layout"}`, nil
	case strings.Contains(prompt, `"score"`):
		return `{"score": 8, "feedback": "solid structure", "strengths": ["clear hero"], "improvements": ["tighten copy"]}`, nil
	case strings.Contains(prompt, "complete HTML document"):
		return "<!DOCTYPE html><html><head><title>refined</title></head><body><section id=\"hero\"><h1>Refined</h1></section></body></html>", nil
	default:
		sectionType := sniffSectionType(prompt)
		return fmt.Sprintf("<section id=%q><h2>%s</h2><p>Generated content.</p></section>", sectionType, capitalize(sectionType)), nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sniffSectionType extracts the section identifier from a generation prompt.
func sniffSectionType(prompt string) string {
	const marker = "Section type: "
	if i := strings.Index(prompt, marker); i >= 0 {
		rest := prompt[i+len(marker):]
		if j := strings.IndexAny(rest, "\n \t"); j > 0 {
			return rest[:j]
		}
		if rest != "" {
			return rest
		}
	}
	return "hero"
}

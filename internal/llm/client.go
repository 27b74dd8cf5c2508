// Package llm abstracts the text-generation providers behind a single client
// interface so the generation pipeline can be exercised with substitute
// implementations.
package llm

import (
	"context"
	"fmt"

	"github.com/wadakatu/gitlyte/internal/config"
)

// Request carries one text-generation call's inputs.
type Request struct {
	System      string  // system instruction, may be empty
	Prompt      string  // user prompt
	Temperature float64 // sampling temperature; 0 means provider default
}

// Client is the narrow text-generation surface the pipeline depends on.
type Client interface {
	// GenerateText issues one generation request and returns the raw text.
	// Provider failures (rate limiting, auth, connectivity) are returned as
	// classified errors; content interpretation is left to the caller.
	GenerateText(ctx context.Context, req Request) (string, error)
	// Name identifies the provider for logs and metrics.
	Name() string
}

// New builds a client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case config.ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

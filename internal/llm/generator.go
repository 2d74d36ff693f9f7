// Package llm provides the text-generation capability behind the RAG
// agent. The active generator is chosen by configuration at startup and
// injected; there is no lazy global handle and no silent fallback between
// backends.
package llm

import (
	"context"
	"fmt"

	"news-rag/internal/config"
)

// Generator produces an answer for a prompt. systemPrompt may be empty.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
	ModelName() string
}

// FromConfig builds the configured generator.
func FromConfig(cfg *config.Config) (Generator, error) {
	switch cfg.LLM.Provider {
	case config.LLMOpenAI:
		return NewOpenAI(&cfg.LLM)
	case config.LLMOllama:
		return NewOllama(&cfg.LLM)
	case config.LLMRuleBased:
		return NewRuleBased(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

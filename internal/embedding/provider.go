// Package embedding converts text to fixed-dimension vectors behind a
// provider abstraction. Backends are selected once at startup and injected
// into dependent components.
package embedding

import (
	"context"
	"fmt"

	"news-rag/internal/config"
)

// Provider turns a batch of texts into one vector per text, in order.
// Either the whole batch succeeds or the call fails; callers never see
// partial results. Every vector has Dimensions() elements.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// FromConfig builds the configured provider. Called once during startup
// wiring; core logic never branches on provider names.
func FromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.Embedding.Provider {
	case config.EmbeddingOpenAI:
		return NewOpenAI(&cfg.Embedding)
	case config.EmbeddingOllama:
		return NewOllama(&cfg.Embedding)
	case config.EmbeddingMock:
		return NewMock(cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

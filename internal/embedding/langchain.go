package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"news-rag/internal/config"
)

// LangchainProvider adapts a langchaingo embedder to the Provider
// contract with a declared dimensionality.
type LangchainProvider struct {
	embedder   *embeddings.EmbedderImpl
	name       string
	dimensions int
}

// NewOpenAI builds an OpenAI-compatible embedding provider (also covers
// OpenRouter and other API-compatible backends via base_url).
func NewOpenAI(cfg *config.EmbeddingConfig) (*LangchainProvider, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing openai embeddings: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	log.Debug().Str("model", cfg.Model).Int("dimensions", cfg.Dimensions).Msg("openai embedder ready")
	return &LangchainProvider{embedder: embedder, name: "openai", dimensions: cfg.Dimensions}, nil
}

// NewOllama builds an embedding provider backed by a local Ollama server.
func NewOllama(cfg *config.EmbeddingConfig) (*LangchainProvider, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama embeddings: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	log.Debug().Str("model", cfg.Model).Int("dimensions", cfg.Dimensions).Msg("ollama embedder ready")
	return &LangchainProvider{embedder: embedder, name: "ollama", dimensions: cfg.Dimensions}, nil
}

// Embed returns one vector per input text. A transport failure fails the
// whole batch.
func (p *LangchainProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s embeddings failed: %w", p.name, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%s embeddings returned %d vectors for %d texts", p.name, len(vectors), len(texts))
	}
	return vectors, nil
}

func (p *LangchainProvider) Dimensions() int { return p.dimensions }

func (p *LangchainProvider) Name() string { return p.name }

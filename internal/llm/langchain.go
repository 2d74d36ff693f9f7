package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"news-rag/internal/config"
)

// Generation parameters for grounded question answering: low temperature,
// bounded output.
const (
	genTemperature = 0.1
	genMaxTokens   = 1000
)

// LangchainGenerator adapts a langchaingo chat model to the Generator
// contract. The model client is built once at construction.
type LangchainGenerator struct {
	model llms.Model
	name  string
}

// NewOpenAI builds an OpenAI-compatible generator (also covers OpenRouter
// via base_url).
func NewOpenAI(cfg *config.LLMConfig) (*LangchainGenerator, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing openai llm: %w", err)
	}
	log.Debug().Str("model", cfg.Model).Msg("openai generator ready")
	return &LangchainGenerator{model: model, name: cfg.Model}, nil
}

// NewOllama builds a generator backed by a local Ollama server.
func NewOllama(cfg *config.LLMConfig) (*LangchainGenerator, error) {
	model, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama llm: %w", err)
	}
	log.Debug().Str("model", cfg.Model).Msg("ollama generator ready")
	return &LangchainGenerator{model: model, name: cfg.Model}, nil
}

func (g *LangchainGenerator) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: systemPrompt}},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
	})

	res, err := g.model.GenerateContent(ctx, messages,
		llms.WithTemperature(genTemperature),
		llms.WithMaxTokens(genMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", g.name, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%s generation returned no choices", g.name)
	}
	return res.Choices[0].Content, nil
}

func (g *LangchainGenerator) ModelName() string { return g.name }

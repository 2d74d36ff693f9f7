// Package rag orchestrates query-time retrieval: embed the query, find the
// nearest passages, assemble a numbered context block and produce a cited
// answer through the injected generator.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"news-rag/internal/embedding"
	"news-rag/internal/llm"
	"news-rag/internal/models"
	"news-rag/internal/vectorstore"
)

const DefaultTopK = 4

// Agent answers queries grounded in the indexed corpus. All collaborators
// are injected at construction.
type Agent struct {
	store     vectorstore.Store
	embedder  embedding.Provider
	generator llm.Generator
}

func NewAgent(store vectorstore.Store, embedder embedding.Provider, generator llm.Generator) *Agent {
	return &Agent{store: store, embedder: embedder, generator: generator}
}

// AnswerWithRAG runs the read path: embed, search, assemble, generate.
// Zero retrieved passages short-circuit to a canned answer without
// invoking the generator. The returned source order matches the [n]
// citation numbers in the answer; callers must not re-sort it.
func (a *Agent) AnswerWithRAG(ctx context.Context, query string, topK int) (*models.RAGResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := a.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	points, err := a.store.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("searching vector store: %w", err)
	}
	log.Debug().Str("query", query).Int("topK", topK).Int("hits", len(points)).Msg("retrieved passages")

	if len(points) == 0 {
		return &models.RAGResult{
			Answer:           models.NoRelevantInfoAnswer,
			Sources:          []models.Source{},
			RawModelResponse: "no relevant sources found",
		}, nil
	}

	prompt := fmt.Sprintf(models.RAGPromptTemplate, buildContext(points), query)
	answer, err := a.generator.Generate(ctx, prompt, models.RAGSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := make([]models.Source, len(points))
	for i, p := range points {
		sources[i] = models.Source{
			DocID:      p.Metadata.DocID,
			ChunkIndex: p.Metadata.ChunkIndex,
			Score:      p.Score,
			Snippet:    p.Text,
			Label:      p.Metadata.Label,
			Title:      p.Metadata.Title,
			URL:        p.Metadata.URL,
		}
	}

	return &models.RAGResult{
		Answer:           answer,
		Sources:          sources,
		RawModelResponse: answer,
	}, nil
}

// buildContext emits "[n] (title - label) text" per passage in ranked
// order; n is the 1-based citation index the generator is told to reuse.
func buildContext(points []vectorstore.Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteString("\n\n")
		}
		title := p.Metadata.Title
		if title == "" {
			title = "Unknown Title"
		}
		label := p.Metadata.Label
		if label == "" {
			label = "unknown"
		}
		fmt.Fprintf(&b, "[%d] (%s - %s) %s", i+1, title, label, p.Text)
	}
	return b.String()
}

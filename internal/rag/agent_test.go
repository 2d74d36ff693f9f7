package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag/internal/embedding"
	"news-rag/internal/models"
	"news-rag/internal/vectorstore"
	"news-rag/internal/vectorstore/memory"
)

const testDims = 384

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
	lastSystem string
}

func (g *stubGenerator) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	g.lastSystem = systemPrompt
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *stubGenerator) ModelName() string { return "stub" }

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider unavailable")
}
func (failingEmbedder) Dimensions() int { return testDims }
func (failingEmbedder) Name() string    { return "failing" }

func seedStore(t *testing.T, embedder *embedding.Mock, texts map[string]string) *memory.Store {
	t.Helper()
	store, err := memory.New(testDims)
	require.NoError(t, err)

	for id, text := range texts {
		vectors, err := embedder.Embed(context.Background(), []string{text})
		require.NoError(t, err)
		require.NoError(t, store.UpsertPoints(context.Background(), []vectorstore.Point{{
			ID:     id,
			Vector: vectors[0],
			Text:   text,
			Metadata: models.ChunkMetadata{
				DocID:      id,
				Title:      "Title " + id,
				Label:      models.LabelFake,
				ChunkIndex: 0,
			},
		}}))
	}
	return store
}

func TestAnswerWithRAG_EmptyStoreShortCircuits(t *testing.T) {
	embedder, err := embedding.NewMock(testDims)
	require.NoError(t, err)
	store, err := memory.New(testDims)
	require.NoError(t, err)
	gen := &stubGenerator{response: "should never appear"}

	result, err := NewAgent(store, embedder, gen).AnswerWithRAG(context.Background(), "anything", 4)
	require.NoError(t, err)

	assert.Equal(t, models.NoRelevantInfoAnswer, result.Answer)
	assert.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "no relevant sources found", result.RawModelResponse)
	assert.Zero(t, gen.calls, "generator must not run when retrieval is empty")
}

func TestAnswerWithRAG_AssemblesPromptAndSources(t *testing.T) {
	embedder, err := embedding.NewMock(testDims)
	require.NoError(t, err)
	store := seedStore(t, embedder, map[string]string{
		"fake1_0": "The zorblatt device secretly controls minds according to the article.",
		"real1_0": "The central bank held interest rates steady this quarter.",
	})
	gen := &stubGenerator{response: "Sources describe a mind-control claim [1]."}

	result, err := NewAgent(store, embedder, gen).AnswerWithRAG(context.Background(), "what is the zorblatt device", 4)
	require.NoError(t, err)

	assert.Equal(t, gen.response, result.Answer)
	assert.Equal(t, gen.response, result.RawModelResponse)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, models.RAGSystemPrompt, gen.lastSystem)
	assert.Contains(t, gen.lastPrompt, "what is the zorblatt device")
	assert.Contains(t, gen.lastPrompt, "[1] (Title fake1_0 - fake)")

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "fake1_0", result.Sources[0].DocID, "best match must be cited as [1]")
	assert.Greater(t, result.Sources[0].Score, result.Sources[1].Score)
	assert.Contains(t, result.Sources[0].Snippet, "zorblatt")
	assert.Equal(t, "Title fake1_0", result.Sources[0].Title)
}

func TestAnswerWithRAG_TopKDefaultsAndLimits(t *testing.T) {
	embedder, err := embedding.NewMock(testDims)
	require.NoError(t, err)
	store := seedStore(t, embedder, map[string]string{
		"a_0": "alpha news report",
		"b_0": "beta news report",
		"c_0": "gamma news report",
	})
	gen := &stubGenerator{response: "ok"}
	agent := NewAgent(store, embedder, gen)

	result, err := agent.AnswerWithRAG(context.Background(), "news report", 2)
	require.NoError(t, err)
	assert.Len(t, result.Sources, 2)

	// topK <= 0 falls back to the default.
	result, err = agent.AnswerWithRAG(context.Background(), "news report", 0)
	require.NoError(t, err)
	assert.Len(t, result.Sources, 3)
}

func TestAnswerWithRAG_EmbeddingError(t *testing.T) {
	store, err := memory.New(testDims)
	require.NoError(t, err)
	gen := &stubGenerator{response: "ok"}

	_, err = NewAgent(store, failingEmbedder{}, gen).AnswerWithRAG(context.Background(), "q", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding query")
	assert.Zero(t, gen.calls)
}

func TestAnswerWithRAG_GeneratorError(t *testing.T) {
	embedder, err := embedding.NewMock(testDims)
	require.NoError(t, err)
	store := seedStore(t, embedder, map[string]string{
		"a_0": "alpha news report",
	})
	gen := &stubGenerator{err: errors.New("model offline")}

	_, err = NewAgent(store, embedder, gen).AnswerWithRAG(context.Background(), "news", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating answer")
	assert.Contains(t, err.Error(), "model offline")
}

func TestBuildContext_Fallbacks(t *testing.T) {
	ctx := buildContext([]vectorstore.Point{
		{Text: "passage one", Metadata: models.ChunkMetadata{Title: "T1", Label: models.LabelReal}},
		{Text: "passage two", Metadata: models.ChunkMetadata{}},
	})

	assert.Contains(t, ctx, "[1] (T1 - real) passage one")
	assert.Contains(t, ctx, "[2] (Unknown Title - unknown) passage two")
}

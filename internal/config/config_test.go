package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, EmbeddingMock, cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, LLMRuleBased, cfg.LLM.Provider)
	assert.Equal(t, StoreMemory, cfg.VectorStore.Provider)
	assert.Equal(t, "fake-news-rag", cfg.VectorStore.Collection)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 100, cfg.Ingest.BatchSize)
}

func TestLoad_AppliesDefaultsToPartialConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
vector_store:
  provider: chromem
  chromem:
    in_memory: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreChromem, cfg.VectorStore.Provider)
	assert.True(t, cfg.VectorStore.Chromem.InMemory)
	// Untouched sections still receive defaults.
	assert.Equal(t, EmbeddingMock, cfg.Embedding.Provider)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
}

func TestLoad_ExpandsEnvironmentReferences(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	path := writeConfig(t, `
embedding:
  provider: openai
  api_key: ${TEST_OPENAI_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate_Chunking(t *testing.T) {
	cfg := Default()
	cfg.Chunking.ChunkSize = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Chunking.Overlap = cfg.Chunking.ChunkSize
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Chunking.Overlap = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ProviderCredentials(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = EmbeddingOpenAI
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding.api_key")

	cfg = Default()
	cfg.Embedding.Provider = EmbeddingOllama
	assert.Error(t, cfg.Validate())
	cfg.Embedding.BaseURL = "http://localhost:11434"
	cfg.Embedding.Model = "nomic-embed-text"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Provider = LLMOpenAI
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.api_key")

	cfg = Default()
	cfg.VectorStore.Provider = StorePgvector
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.dsn")
}

func TestValidate_UnknownProviders(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = "quantum"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Provider = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.VectorStore.Provider = "faiss"
	assert.Error(t, cfg.Validate())
}

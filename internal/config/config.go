package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider names accepted by the embedding, llm and vector_store sections.
const (
	EmbeddingOpenAI = "openai"
	EmbeddingOllama = "ollama"
	EmbeddingMock   = "mock"

	LLMOpenAI    = "openai"
	LLMOllama    = "ollama"
	LLMRuleBased = "rule-based"

	StoreMemory   = "memory"
	StoreChromem  = "chromem"
	StorePgvector = "pgvector"
)

type ServerConfig struct {
	Port           int    `yaml:"port"`
	AdminToken     string `yaml:"admin_token"`
	FrontendOrigin string `yaml:"frontend_origin"`
}

type CorpusConfig struct {
	Path string `yaml:"path"`
}

type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type ChromemConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	Compress bool   `yaml:"compress"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type VectorStoreConfig struct {
	Provider   string         `yaml:"provider"`
	Collection string         `yaml:"collection"`
	Chromem    ChromemConfig  `yaml:"chromem"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// Config is the fully resolved application configuration. Core components
// are only ever constructed from a validated Config.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
}

// Load reads the config from path, expands ${ENV} references, applies
// defaults and validates. A missing file yields the validated defaults so
// the mock/rule-based stack works with no config at all.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the zero-dependency configuration: mock embeddings,
// rule-based generation, in-memory vector store.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Server.FrontendOrigin == "" {
		cfg.Server.FrontendOrigin = "http://localhost:3000"
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "./data/preprocessed.jsonl"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 100
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbeddingMock
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case EmbeddingOpenAI:
			cfg.Embedding.Dimensions = 1536
		default:
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.Provider == EmbeddingOpenAI && cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = LLMRuleBased
	}
	if cfg.LLM.Provider == LLMOpenAI && cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = StoreMemory
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "fake-news-rag"
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "./chromemdb"
	}
}

// Validate enforces the construction-time configuration contract: degenerate
// chunking settings and missing provider credentials refuse to initialize
// here rather than failing lazily on first use.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must be in [0, chunk_size), got %d", c.Chunking.Overlap)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}

	switch c.Embedding.Provider {
	case EmbeddingMock:
	case EmbeddingOpenAI:
		if c.Embedding.APIKey == "" {
			return errors.New("embedding.api_key is required for the openai provider")
		}
	case EmbeddingOllama:
		if c.Embedding.BaseURL == "" || c.Embedding.Model == "" {
			return errors.New("embedding.base_url and embedding.model are required for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	switch c.LLM.Provider {
	case LLMRuleBased:
	case LLMOpenAI:
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key is required for the openai provider")
		}
	case LLMOllama:
		if c.LLM.BaseURL == "" || c.LLM.Model == "" {
			return errors.New("llm.base_url and llm.model are required for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}

	switch c.VectorStore.Provider {
	case StoreMemory:
	case StoreChromem:
		if !c.VectorStore.Chromem.InMemory && c.VectorStore.Chromem.Path == "" {
			return errors.New("vector_store.chromem.path is required for a persistent chromem store")
		}
	case StorePgvector:
		if c.VectorStore.Postgres.DSN == "" {
			return errors.New("vector_store.postgres.dsn is required for the pgvector provider")
		}
	default:
		return fmt.Errorf("unsupported vector store provider: %s", c.VectorStore.Provider)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"news-rag/internal/chunker"
	"news-rag/internal/config"
	"news-rag/internal/corpus"
	"news-rag/internal/embedding"
	"news-rag/internal/ingest"
	"news-rag/internal/llm"
	"news-rag/internal/rag"
	"news-rag/internal/server"
	"news-rag/internal/vectorstore"
	chromemstore "news-rag/internal/vectorstore/chromem"
	"news-rag/internal/vectorstore/memory"
	"news-rag/internal/vectorstore/pgvector"
)

const defaultConfigPath = "./configs/config.yaml"

var configPath string

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	// .env is optional; secrets referenced from the config as ${VAR}.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "newsrag",
		Short: "RAG service over the Fake vs Real News dataset",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")

	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(clearCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// components is everything the commands need, wired once from config
// before any request is served.
type components struct {
	cfg       *config.Config
	store     vectorstore.Store
	embedder  embedding.Provider
	generator llm.Generator
	loader    *corpus.Loader
	ingestor  *ingest.Ingestor
	agent     *rag.Agent
	close     func()
}

func buildComponents(ctx context.Context) (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	ch, err := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("initializing chunker: %w", err)
	}
	loader := corpus.NewLoader(ch)

	embedder, err := embedding.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}
	generator, err := llm.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing generator: %w", err)
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}

	log.Info().
		Str("embedding", embedder.Name()).
		Str("generator", generator.ModelName()).
		Str("store", cfg.VectorStore.Provider).
		Msg("components wired")

	return &components{
		cfg:       cfg,
		store:     store,
		embedder:  embedder,
		generator: generator,
		loader:    loader,
		ingestor:  ingest.New(loader, embedder, store, cfg.VectorStore.Collection, cfg.Corpus.Path, cfg.Ingest.BatchSize),
		agent:     rag.NewAgent(store, embedder, generator),
		close:     closeStore,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, func(), error) {
	dims := cfg.Embedding.Dimensions
	switch cfg.VectorStore.Provider {
	case config.StoreMemory:
		s, err := memory.New(dims)
		return s, func() {}, err
	case config.StoreChromem:
		s, err := chromemstore.New(&cfg.VectorStore.Chromem, cfg.VectorStore.Collection, dims)
		return s, func() {}, err
	case config.StorePgvector:
		s, err := pgvector.New(ctx, &cfg.VectorStore.Postgres, cfg.VectorStore.Collection, dims)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vector store provider: %s", cfg.VectorStore.Provider)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/JSON-RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			comps, err := buildComponents(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(comps.cfg, comps.store, comps.agent, comps.ingestor, comps.generator.ModelName())
			return srv.Run()
		},
	}
}

func ingestCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index the corpus into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			comps, err := buildComponents(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			result := comps.ingestor.Ingest(ctx, force)
			printJSON(result)
			if !result.Success && result.Error != "" {
				return fmt.Errorf("ingestion failed: %s", result.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-ingest even if the collection already has data")
	return cmd
}

func queryCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a RAG query against the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			comps, err := buildComponents(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			result, err := comps.agent.AnswerWithRAG(ctx, args[0], topK)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n\n", result.Answer)
			for i, src := range result.Sources {
				fmt.Printf("[%d] %s (%s) score=%.4f doc=%s chunk=%d\n", i+1, src.Title, src.Label, src.Score, src.DocID, src.ChunkIndex)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", rag.DefaultTopK, "number of passages to retrieve")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			comps, err := buildComponents(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			stats, err := comps.store.Stats(ctx, comps.cfg.VectorStore.Collection)
			if err != nil {
				return err
			}
			printJSON(map[string]any{
				"collection":        comps.cfg.VectorStore.Collection,
				"provider":          comps.cfg.VectorStore.Provider,
				"totalDocuments":    stats.Count,
				"embeddingProvider": comps.embedder.Name(),
				"completionModel":   comps.generator.ModelName(),
			})
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all points from the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			comps, err := buildComponents(ctx)
			if err != nil {
				return err
			}
			defer comps.close()

			result := comps.ingestor.Clear(ctx)
			printJSON(result)
			if !result.Success {
				return fmt.Errorf("clear failed: %s", result.Error)
			}
			return nil
		},
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("could not render output")
		return
	}
	fmt.Println(string(data))
}

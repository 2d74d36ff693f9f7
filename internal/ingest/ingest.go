// Package ingest runs the write path: load and chunk the corpus, embed in
// fixed-size batches and upsert into the vector store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"news-rag/internal/corpus"
	"news-rag/internal/embedding"
	"news-rag/internal/vectorstore"
)

const DefaultBatchSize = 100

// Result is the structured outcome of an ingestion or clear run. Expected
// "already populated" and "nothing to do" conditions are reported here with
// Success false rather than as errors.
type Result struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	TotalChunks  int       `json:"totalChunks,omitempty"`
	TotalBatches int       `json:"totalBatches,omitempty"`
	FinalCount   int       `json:"finalCount,omitempty"`
	CurrentCount int       `json:"currentCount,omitempty"`
	CountBefore  int       `json:"countBefore,omitempty"`
	CountAfter   int       `json:"countAfter"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Ingestor drives one ingestion run at a time. Concurrent runs against the
// same collection must be serialized by the caller.
type Ingestor struct {
	loader     *corpus.Loader
	embedder   embedding.Provider
	store      vectorstore.Store
	collection string
	corpusPath string
	batchSize  int
}

func New(loader *corpus.Loader, embedder embedding.Provider, store vectorstore.Store, collection, corpusPath string, batchSize int) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingestor{
		loader:     loader,
		embedder:   embedder,
		store:      store,
		collection: collection,
		corpusPath: corpusPath,
		batchSize:  batchSize,
	}
}

// Ingest indexes the corpus. Without force it refuses to touch a populated
// collection; with force it clears first. Batches are embedded and
// upserted strictly in order, so a mid-run failure leaves a deterministic
// prefix indexed. Note that such a prefix blocks a later non-forced retry
// (the collection is non-empty); re-run with force after a failure.
func (ing *Ingestor) Ingest(ctx context.Context, force bool) Result {
	if !force {
		stats, err := ing.store.Stats(ctx, ing.collection)
		if err != nil {
			return ing.failure("checking collection stats", err)
		}
		if stats.Count > 0 {
			return Result{
				Success:      false,
				Message:      "Collection already exists and has data. Use force=true to re-ingest.",
				CurrentCount: stats.Count,
				CountAfter:   stats.Count,
				Timestamp:    time.Now().UTC(),
			}
		}
	}

	if force {
		log.Info().Str("collection", ing.collection).Msg("clearing collection before re-ingest")
		if err := ing.store.ClearCollection(ctx, ing.collection); err != nil {
			return ing.failure("clearing collection", err)
		}
	}

	if err := ing.store.CreateCollectionIfNotExists(ctx, ing.collection); err != nil {
		return ing.failure("creating collection", err)
	}

	chunks, err := ing.loader.LoadAndChunk(ing.corpusPath)
	if err != nil {
		return ing.failure("loading corpus", err)
	}
	if len(chunks) == 0 {
		return Result{
			Success:   false,
			Message:   "No documents found to ingest",
			Timestamp: time.Now().UTC(),
		}
	}

	totalBatches := (len(chunks) + ing.batchSize - 1) / ing.batchSize
	log.Info().Int("chunks", len(chunks)).Int("batches", totalBatches).Msg("embedding corpus")

	for start := 0; start < len(chunks); start += ing.batchSize {
		end := start + ing.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		batchNum := start/ing.batchSize + 1

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := ing.embedder.Embed(ctx, texts)
		if err != nil {
			return ing.failure(fmt.Sprintf("embedding batch %d/%d", batchNum, totalBatches), err)
		}

		points := make([]vectorstore.Point, len(batch))
		for i, c := range batch {
			points[i] = vectorstore.Point{
				ID:       c.ID,
				Vector:   vectors[i],
				Text:     c.Text,
				Metadata: c.Metadata,
			}
		}
		if err := ing.store.UpsertPoints(ctx, points); err != nil {
			return ing.failure(fmt.Sprintf("upserting batch %d/%d", batchNum, totalBatches), err)
		}
		log.Debug().Int("batch", batchNum).Int("of", totalBatches).Int("chunks", len(batch)).Msg("batch indexed")
	}

	// Report the store's count as ground truth, not the computed total.
	finalStats, err := ing.store.Stats(ctx, ing.collection)
	if err != nil {
		return ing.failure("reading final stats", err)
	}

	return Result{
		Success:      true,
		Message:      "Ingestion completed successfully",
		TotalChunks:  len(chunks),
		TotalBatches: totalBatches,
		FinalCount:   finalStats.Count,
		CountAfter:   finalStats.Count,
		Timestamp:    time.Now().UTC(),
	}
}

// Clear removes all points from the collection and reports counts before
// and after. Clearing an empty collection succeeds.
func (ing *Ingestor) Clear(ctx context.Context) Result {
	before, err := ing.store.Stats(ctx, ing.collection)
	if err != nil {
		return clearFailure("checking collection stats", err)
	}
	if err := ing.store.ClearCollection(ctx, ing.collection); err != nil {
		return clearFailure("clearing collection", err)
	}
	after, err := ing.store.Stats(ctx, ing.collection)
	if err != nil {
		return clearFailure("checking collection stats", err)
	}
	return Result{
		Success:     true,
		Message:     "Collection cleared successfully",
		CountBefore: before.Count,
		CountAfter:  after.Count,
		Timestamp:   time.Now().UTC(),
	}
}

func (ing *Ingestor) failure(step string, err error) Result {
	log.Error().Err(err).Str("step", step).Msg("ingestion failed")
	return Result{
		Success:   false,
		Message:   "Ingestion failed",
		Error:     fmt.Sprintf("%s: %v", step, err),
		Timestamp: time.Now().UTC(),
	}
}

func clearFailure(step string, err error) Result {
	log.Error().Err(err).Str("step", step).Msg("clear failed")
	return Result{
		Success:   false,
		Message:   "Failed to clear collection",
		Error:     fmt.Sprintf("%s: %v", step, err),
		Timestamp: time.Now().UTC(),
	}
}

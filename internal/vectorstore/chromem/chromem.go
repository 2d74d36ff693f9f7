// Package chromem backs the vector store contract with chromem-go, either
// in memory or persisted on local disk.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"news-rag/internal/config"
	"news-rag/internal/models"
	"news-rag/internal/vectorstore"
)

// Store wraps a chromem DB holding one collection of fixed dimensionality.
type Store struct {
	db         *chromem.DB
	collection string
	dimension  int
}

// New opens (or creates) the database per the config. The collection itself
// is created lazily by CreateCollectionIfNotExists.
func New(cfg *config.ChromemConfig, collection string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dimension)
	}
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db at %s: %w", cfg.Path, err)
		}
	}
	return &Store{db: db, collection: collection, dimension: dimension}, nil
}

func (s *Store) CreateCollectionIfNotExists(_ context.Context, name string) error {
	if _, err := s.db.GetOrCreateCollection(name, nil, nil); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

func (s *Store) UpsertPoints(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	c, err := s.db.GetOrCreateCollection(s.collection, nil, nil)
	if err != nil {
		return fmt.Errorf("getting collection %s: %w", s.collection, err)
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("point %s has dimension %d, store expects %d", p.ID, len(p.Vector), s.dimension)
		}
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Text,
			Metadata:  metadataToMap(p.Metadata),
			Embedding: p.Vector,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Point, error) {
	c := s.db.GetCollection(s.collection, nil)
	if c == nil {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection size.
	count := c.Count()
	if count == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	results, err := c.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.collection, err)
	}
	points := make([]vectorstore.Point, len(results))
	for i, r := range results {
		points[i] = vectorstore.Point{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: metadataFromMap(r.Metadata),
			Score:    float64(r.Similarity),
		}
	}
	return points, nil
}

func (s *Store) ClearCollection(_ context.Context, name string) error {
	if s.db.GetCollection(name, nil) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("clearing collection %s: %w", name, err)
	}
	log.Debug().Str("collection", name).Msg("cleared chromem collection")
	return nil
}

func (s *Store) Stats(_ context.Context, name string) (vectorstore.Stats, error) {
	c := s.db.GetCollection(name, nil)
	if c == nil {
		return vectorstore.Stats{}, nil
	}
	return vectorstore.Stats{Count: c.Count()}, nil
}

func metadataToMap(m models.ChunkMetadata) map[string]string {
	return map[string]string{
		"docId":      m.DocID,
		"title":      m.Title,
		"label":      m.Label,
		"chunkIndex": strconv.Itoa(m.ChunkIndex),
		"source":     m.Source,
		"url":        m.URL,
	}
}

func metadataFromMap(m map[string]string) models.ChunkMetadata {
	index, _ := strconv.Atoi(m["chunkIndex"])
	return models.ChunkMetadata{
		DocID:      m["docId"],
		Title:      m["title"],
		Label:      m["label"],
		ChunkIndex: index,
		Source:     m["source"],
		URL:        m["url"],
	}
}

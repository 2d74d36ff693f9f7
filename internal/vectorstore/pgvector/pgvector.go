// Package pgvector backs the vector store contract with Postgres/pgvector
// (Supabase-compatible) through bun.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"news-rag/internal/config"
	"news-rag/internal/models"
	"news-rag/internal/vectorstore"
)

// Postgres caps bind parameters; 500 rows per INSERT keeps a wide margin.
const upsertBatchSize = 500

type pointRow struct {
	bun.BaseModel `bun:"table:rag_points,alias:p"`

	ID         string  `bun:"id,pk"`
	Collection string  `bun:"collection,notnull"`
	Text       string  `bun:"text,notnull"`
	DocID      string  `bun:"doc_id,notnull"`
	Title      string  `bun:"title"`
	Label      string  `bun:"label"`
	ChunkIndex int     `bun:"chunk_index"`
	Source     string  `bun:"source"`
	URL        string  `bun:"url"`
	Embedding  string  `bun:"embedding"`
	Score      float64 `bun:"score,scanonly"`
}

// Store holds one logical collection as rows in the rag_points table,
// namespaced by the collection column.
type Store struct {
	db         *bun.DB
	collection string
	dimension  int
}

// New connects and ensures the pgvector extension and schema exist, so
// Stats works before the first ingestion run.
func New(ctx context.Context, cfg *config.PostgresConfig, collection string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dimension)
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &Store{db: db, collection: collection, dimension: dimension}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enabling pgvector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_points (
		id text PRIMARY KEY,
		collection text NOT NULL,
		text text NOT NULL,
		doc_id text NOT NULL,
		title text,
		label text,
		chunk_index integer,
		source text,
		url text,
		embedding vector(%d) NOT NULL
	)`, s.dimension)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating rag_points table: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateCollectionIfNotExists is satisfied by the schema ensured at
// construction; rows are namespaced by the collection column.
func (s *Store) CreateCollectionIfNotExists(ctx context.Context, _ string) error {
	return s.ensureSchema(ctx)
}

func (s *Store) UpsertPoints(ctx context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		rows := make([]pointRow, 0, end-start)
		for _, p := range points[start:end] {
			if len(p.Vector) != s.dimension {
				return fmt.Errorf("point %s has dimension %d, store expects %d", p.ID, len(p.Vector), s.dimension)
			}
			rows = append(rows, pointRow{
				ID:         p.ID,
				Collection: s.collection,
				Text:       p.Text,
				DocID:      p.Metadata.DocID,
				Title:      p.Metadata.Title,
				Label:      p.Metadata.Label,
				ChunkIndex: p.Metadata.ChunkIndex,
				Source:     p.Metadata.Source,
				URL:        p.Metadata.URL,
				Embedding:  vectorLiteral(p.Vector),
			})
		}
		_, err := s.db.NewInsert().
			Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("embedding = EXCLUDED.embedding").
			Set("text = EXCLUDED.text").
			Set("title = EXCLUDED.title").
			Set("label = EXCLUDED.label").
			Set("chunk_index = EXCLUDED.chunk_index").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upserting %d points: %w", len(rows), err)
		}
		log.Debug().Int("points", len(rows)).Msg("upserted pgvector batch")
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Point, error) {
	if topK <= 0 {
		return nil, nil
	}
	lit := vectorLiteral(vector)
	var rows []pointRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "text", "doc_id", "title", "label", "chunk_index", "source", "url").
		ColumnExpr("1 - (embedding <=> ?::vector) AS score", lit).
		Where("collection = ?", s.collection).
		OrderExpr("embedding <=> ?::vector", lit).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying rag_points: %w", err)
	}
	points := make([]vectorstore.Point, len(rows))
	for i, r := range rows {
		points[i] = vectorstore.Point{
			ID:   r.ID,
			Text: r.Text,
			Metadata: models.ChunkMetadata{
				DocID:      r.DocID,
				Title:      r.Title,
				Label:      r.Label,
				ChunkIndex: r.ChunkIndex,
				Source:     r.Source,
				URL:        r.URL,
			},
			Score: r.Score,
		}
	}
	return points, nil
}

func (s *Store) ClearCollection(ctx context.Context, _ string) error {
	_, err := s.db.NewDelete().Model((*pointRow)(nil)).Where("collection = ?", s.collection).Exec(ctx)
	if err != nil {
		return fmt.Errorf("clearing rag_points: %w", err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context, _ string) (vectorstore.Stats, error) {
	count, err := s.db.NewSelect().Model((*pointRow)(nil)).Where("collection = ?", s.collection).Count(ctx)
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("counting rag_points: %w", err)
	}
	return vectorstore.Stats{Count: count}, nil
}

// vectorLiteral renders the pgvector input format: [x1,x2,...].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Package vectorstore defines the contract every vector backend satisfies.
// Backends are interchangeable without changing the core pipeline.
package vectorstore

import (
	"context"

	"news-rag/internal/models"
)

// Point is one vector store entry: the vector plus the chunk's metadata
// projection. Score and Text are populated on query results.
type Point struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata models.ChunkMetadata
	Score    float64
}

// Stats reports the collection's point count, the system's primary health
// signal.
type Stats struct {
	Count int `json:"count"`
}

// Store persists vectors with metadata and answers nearest-neighbor
// queries by descending cosine similarity.
//
// CreateCollectionIfNotExists and ClearCollection are idempotent.
// UpsertPoints is insert-or-replace by point ID, a no-op on empty input,
// and batches internally if the backend needs it. Query returns up to topK
// points; an empty collection yields an empty slice, never an error. A
// failed upsert never reports success.
type Store interface {
	CreateCollectionIfNotExists(ctx context.Context, name string) error
	UpsertPoints(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, topK int) ([]Point, error)
	ClearCollection(ctx context.Context, name string) error
	Stats(ctx context.Context, name string) (Stats, error)
}

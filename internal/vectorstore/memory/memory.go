// Package memory is the brute-force in-memory reference backend. It is the
// explicit, named stand-in for a managed vector index, used in tests and
// when no external store is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"news-rag/internal/vectorstore"
)

// Store keeps points in a map keyed by point ID and answers queries by
// exhaustive cosine similarity. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	dimension int
	points    map[string]vectorstore.Point
}

// New rejects a non-positive dimensionality at construction.
func New(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dimension)
	}
	return &Store{dimension: dimension, points: make(map[string]vectorstore.Point)}, nil
}

func (s *Store) CreateCollectionIfNotExists(_ context.Context, _ string) error {
	return nil
}

func (s *Store) UpsertPoints(_ context.Context, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("point %s has dimension %d, store expects %d", p.ID, len(p.Vector), s.dimension)
		}
	}
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

func (s *Store) Query(_ context.Context, vector []float32, topK int) ([]vectorstore.Point, error) {
	if topK <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.Point, 0, len(s.points))
	for _, p := range s.points {
		p.Score = cosine(vector, p.Vector)
		results = append(results, p)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) ClearCollection(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = make(map[string]vectorstore.Point)
	return nil
}

func (s *Store) Stats(_ context.Context, _ string) (vectorstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Stats{Count: len(s.points)}, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

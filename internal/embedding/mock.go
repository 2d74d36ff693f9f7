package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Mock is a deterministic, dependency-free provider: each text becomes an
// L2-normalized bag-of-words vector with tokens hashed into a fixed number
// of buckets. The same text always produces the same vector, and texts
// sharing vocabulary score higher under cosine similarity, which keeps
// retrieval tests meaningful without any network service.
type Mock struct {
	dimensions int
}

func NewMock(dimensions int) (*Mock, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("mock embedding dimensions must be positive, got %d", dimensions)
	}
	return &Mock{dimensions: dimensions}, nil
}

func (m *Mock) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.embedOne(text)
	}
	return vectors, nil
}

func (m *Mock) Dimensions() int { return m.dimensions }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) embedOne(text string) []float32 {
	vec := make([]float32, m.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%m.dimensions]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Package corpus reads the labeled news dataset from line-delimited JSON
// and drives the chunker to produce passages ready for embedding.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"news-rag/internal/chunker"
	"news-rag/internal/models"
)

// Lines in the corpus file can be long; allow up to 16 MiB per record.
const maxLineBytes = 16 * 1024 * 1024

// Loader loads documents and chunks them per document, preserving order.
type Loader struct {
	chunker *chunker.Chunker
}

func NewLoader(c *chunker.Chunker) *Loader {
	return &Loader{chunker: c}
}

// LoadDocuments reads one JSON document per line. Unparseable lines are
// skipped with a warning; an unreadable source is fatal.
func (l *Loader) LoadDocuments(path string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()

	var documents []models.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var doc models.Document
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			log.Warn().Int("line", lineNo).Err(err).Msg("skipping unparseable corpus record")
			continue
		}
		documents = append(documents, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}

	log.Info().Int("documents", len(documents)).Str("path", path).Msg("loaded corpus")
	return documents, nil
}

// ChunkDocuments delegates to the chunker per document and concatenates the
// results. Cross-document order is the input document order.
func (l *Loader) ChunkDocuments(documents []models.Document) []models.Chunk {
	var all []models.Chunk
	for _, doc := range documents {
		chunks := l.chunker.Chunk(doc.DocID, doc.Title, doc.Text, doc.Label, doc.URL)
		all = append(all, chunks...)
	}
	log.Info().Int("chunks", len(all)).Int("documents", len(documents)).Msg("chunked corpus")
	return all
}

// LoadAndChunk is the write-path entry point used by ingestion.
func (l *Loader) LoadAndChunk(path string) ([]models.Chunk, error) {
	documents, err := l.LoadDocuments(path)
	if err != nil {
		return nil, err
	}
	return l.ChunkDocuments(documents), nil
}

// DatasetStats summarizes a loaded corpus.
type DatasetStats struct {
	Total          int `json:"total"`
	Fake           int `json:"fake"`
	Real           int `json:"real"`
	AvgTextLength  int `json:"avgTextLength"`
	AvgTitleLength int `json:"avgTitleLength"`
}

// Stats computes label counts and average lengths over the documents.
func Stats(documents []models.Document) DatasetStats {
	s := DatasetStats{Total: len(documents)}
	if len(documents) == 0 {
		return s
	}
	var textLen, titleLen int
	for _, doc := range documents {
		switch doc.Label {
		case models.LabelFake:
			s.Fake++
		case models.LabelReal:
			s.Real++
		}
		textLen += len(doc.Text)
		titleLen += len(doc.Title)
	}
	s.AvgTextLength = textLen / len(documents)
	s.AvgTitleLength = titleLen / len(documents)
	return s
}

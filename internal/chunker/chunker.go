// Package chunker splits document text into overlapping passages sized for
// embedding and context-window limits.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"news-rag/internal/models"
)

// sourceTag marks where the corpus came from in chunk metadata.
const sourceTag = "kaggle"

var paragraphSplitter = regexp.MustCompile(`\n\s*\n`)

// Chunker accumulates paragraphs into chunks of at most chunkSize
// characters, seeding each new chunk with an overlap tail of roughly
// overlap/4 words from the previous one.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New validates the configuration up front; a chunker never fails at
// Chunk time.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into ordered chunks. Chunk indices are contiguous from
// 0 and chunk ids are {docID}_{index}. Empty text yields no chunks; text
// with no blank-line boundaries yields a single chunk.
func (c *Chunker) Chunk(docID, title, text, label, url string) []models.Chunk {
	var chunks []models.Chunk

	paragraphs := paragraphSplitter.Split(text, -1)
	var current strings.Builder
	index := 0

	for _, paragraph := range paragraphs {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		if current.Len()+len(trimmed) > c.chunkSize && current.Len() > 0 {
			chunks = append(chunks, c.newChunk(docID, title, strings.TrimSpace(current.String()), label, index, url))
			index++

			tail := c.overlapTail(current.String())
			current.Reset()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString(" ")
			}
			current.WriteString(trimmed)
		} else {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(trimmed)
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, c.newChunk(docID, title, strings.TrimSpace(current.String()), label, index, url))
	}

	// Text without any paragraph content still becomes one chunk, as long
	// as it is non-empty after trimming.
	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		chunks = append(chunks, c.newChunk(docID, title, strings.TrimSpace(text), label, 0, url))
	}

	return chunks
}

func (c *Chunker) newChunk(docID, title, text, label string, index int, url string) models.Chunk {
	return models.Chunk{
		ID:   fmt.Sprintf("%s_%d", docID, index),
		Text: text,
		Metadata: models.ChunkMetadata{
			DocID:      docID,
			Title:      title,
			Label:      label,
			ChunkIndex: index,
			Source:     sourceTag,
			URL:        url,
		},
	}
}

// overlapTail returns the last ~overlap/4 words of text (roughly 4
// characters per word).
func (c *Chunker) overlapTail(text string) string {
	words := strings.Fields(text)
	n := c.overlap / 4
	if n <= 0 {
		return ""
	}
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ")
}

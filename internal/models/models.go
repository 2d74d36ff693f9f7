package models

// Labels assigned to corpus documents.
const (
	LabelFake = "fake"
	LabelReal = "real"
)

// Document is one labeled news item as read from the corpus file.
// Immutable once loaded; discarded after chunking.
type Document struct {
	DocID  string `json:"docId"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Label  string `json:"label"`
	URL    string `json:"url,omitempty"`
	Date   string `json:"date,omitempty"`
	Source string `json:"source,omitempty"`
}

// ChunkMetadata travels with a chunk into the vector store and back out
// with query results.
type ChunkMetadata struct {
	DocID      string `json:"docId"`
	Title      string `json:"title"`
	Label      string `json:"label"`
	ChunkIndex int    `json:"chunkIndex"`
	Source     string `json:"source,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Chunk is a contiguous, possibly overlapping passage of a document,
// sized for embedding. ID is {docId}_{chunkIndex}.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Source describes one retrieved passage backing an answer. The slice
// order in RAGResult matches the [n] citation numbers in the answer.
type Source struct {
	DocID      string  `json:"docId"`
	ChunkIndex int     `json:"chunkIndex"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
	Label      string  `json:"label"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
}

// RAGResult is the query-scoped outcome of one RAG query. Not persisted.
type RAGResult struct {
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	RawModelResponse string   `json:"rawModelResponse"`
}

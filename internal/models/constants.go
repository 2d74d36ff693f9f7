package models

const (
	// DefaultCollection is the vector store collection used when the config
	// does not name one.
	DefaultCollection = "fake-news-rag"

	// NoRelevantInfoAnswer is returned when retrieval finds nothing; the
	// generator is not invoked in that case.
	NoRelevantInfoAnswer = "I don't have any relevant information in the dataset to answer this question."

	// RAGSystemPrompt instructs the generator to stay grounded in the
	// retrieved documents and to reuse the [n] citation indices.
	RAGSystemPrompt = `You are a research assistant that answers questions using only the documents provided below. Always cite sources inline using [1], [2], etc. If you cannot answer from the documents, say "I don't know based on the dataset."`
)

var (
	// RAGPromptTemplate takes the numbered context block and the verbatim
	// query, in that order.
	RAGPromptTemplate = `You are a research assistant that answers questions using only the documents provided below.
Cite sources inline using [1], [2], ... If you cannot answer from the documents, say "I don't know based on the dataset."

Documents:
%s

Question: %s

Provide a concise answer and include a short summary of which documents were most helpful.`
)

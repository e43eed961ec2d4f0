package model

// DefaultEmbeddingDimension is the embedding vector size used unless configured otherwise.
// OpenAI text-embedding-3-small produces 1536 dimensions.
const DefaultEmbeddingDimension = 1536

// Document is one named source unit of the knowledge base. Name is the
// identity used for replacement on re-ingestion and for diversity capping
// during retrieval, so it must be stable across runs (e.g. the file name
// or the Notion page ID, never a timestamped value).
type Document struct {
	Name string
	Text string
}

package interfaces

import (
	"context"

	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// Repository defines the interface for data persistence
type Repository interface {
	Chunk() ChunkRepository

	// Close releases underlying client resources
	Close() error
}

// ChunkRepository defines the interface for chunk storage and vector search
type ChunkRepository interface {
	// Upsert stores chunks with their embedding vectors, replacing any
	// existing chunks with the same IDs. Vectors must match the chunks
	// one to one and share the repository's embedding dimension.
	Upsert(ctx context.Context, chunks []*model.Chunk, vectors [][]float32) error

	// Get retrieves a chunk by ID. Absent IDs yield an error satisfying
	// errors.Is against the implementation package's ErrNotFound.
	Get(ctx context.Context, id model.ChunkID) (*model.Chunk, error)

	// DeleteBySource removes all chunks of a source document and reports
	// how many were removed
	DeleteBySource(ctx context.Context, source string) (int, error)

	// Search performs vector similarity search using cosine distance.
	// Results are sorted by ascending distance; ties are broken by chunk
	// index, then source name. An empty index yields an empty result.
	Search(ctx context.Context, vector []float32, limit int) ([]*model.ScoredChunk, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)

	// Sources lists the distinct source document names in the index
	Sources(ctx context.Context) ([]string, error)
}

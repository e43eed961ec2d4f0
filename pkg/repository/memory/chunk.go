package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

type storedChunk struct {
	chunk  *model.Chunk
	vector []float32
}

type chunkRepository struct {
	mu        sync.RWMutex
	entries   map[model.ChunkID]*storedChunk
	dimension int // fixed by the first upsert
}

func newChunkRepository() *chunkRepository {
	return &chunkRepository{
		entries: make(map[model.ChunkID]*storedChunk),
	}
}

func copyChunk(c *model.Chunk) *model.Chunk {
	copied := *c
	return &copied
}

func (r *chunkRepository) Upsert(ctx context.Context, chunks []*model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return goerr.New("chunk and vector counts differ",
			goerr.V("chunks", len(chunks)), goerr.V("vectors", len(vectors)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, chunk := range chunks {
		vec := vectors[i]
		if len(vec) == 0 {
			return goerr.New("empty embedding vector", goerr.V("chunkID", chunk.ID))
		}
		if r.dimension == 0 {
			r.dimension = len(vec)
		}
		if len(vec) != r.dimension {
			return goerr.New("embedding dimension mismatch",
				goerr.V("chunkID", chunk.ID),
				goerr.V("want", r.dimension),
				goerr.V("got", len(vec)))
		}

		stored := &storedChunk{
			chunk:  copyChunk(chunk),
			vector: make([]float32, len(vec)),
		}
		copy(stored.vector, vec)
		r.entries[chunk.ID] = stored
	}

	return nil
}

func (r *chunkRepository) Get(ctx context.Context, id model.ChunkID) (*model.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "chunk not found", goerr.V("chunkID", id))
	}

	return copyChunk(stored.chunk), nil
}

func (r *chunkRepository) DeleteBySource(ctx context.Context, source string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, stored := range r.entries {
		if stored.chunk.Source == source {
			delete(r.entries, id)
			removed++
		}
	}

	return removed, nil
}

func (r *chunkRepository) Search(ctx context.Context, vector []float32, limit int) ([]*model.ScoredChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 || limit <= 0 {
		return []*model.ScoredChunk{}, nil
	}
	if r.dimension != 0 && len(vector) != r.dimension {
		return nil, goerr.New("query vector dimension mismatch",
			goerr.V("want", r.dimension), goerr.V("got", len(vector)))
	}

	candidates := make([]*model.ScoredChunk, 0, len(r.entries))
	for _, stored := range r.entries {
		candidates = append(candidates, &model.ScoredChunk{
			Chunk:    copyChunk(stored.chunk),
			Distance: cosineDistance(vector, stored.vector),
		})
	}

	sortScored(candidates)

	if limit > len(candidates) {
		limit = len(candidates)
	}
	return candidates[:limit], nil
}

func (r *chunkRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

func (r *chunkRepository) Sources(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, stored := range r.entries {
		seen[stored.chunk.Source] = true
	}

	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	return sources, nil
}

// sortScored orders by ascending cosine distance. Equal distances fall back
// to chunk index and then source name so results are stable across runs.
func sortScored(chunks []*model.ScoredChunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Distance != chunks[j].Distance {
			return chunks[i].Distance < chunks[j].Distance
		}
		if chunks[i].Chunk.Index != chunks[j].Chunk.Index {
			return chunks[i].Chunk.Index < chunks[j].Chunk.Index
		}
		return chunks[i].Chunk.Source < chunks[j].Chunk.Source
	})
}

// cosineDistance is 1 - cosine similarity, in [0, 2]. Lower is closer.
// Zero vectors yield distance 1 (no signal either way).
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 1
	}

	return 1 - dot/denom
}

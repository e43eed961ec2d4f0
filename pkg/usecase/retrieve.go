package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

// retrieve embeds the search query and returns the context chunks that
// survive relevance and diversity filtering
func (uc *UseCases) retrieve(ctx context.Context, searchQuery string) ([]*model.Chunk, error) {
	vector, err := uc.embedder.Embed(ctx, searchQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query")
	}

	candidates, err := uc.repo.Chunk().Search(ctx, vector, uc.retrieval.Candidates)
	if err != nil {
		return nil, goerr.Wrap(err, "vector search failed")
	}

	chunks := filterCandidates(candidates, uc.retrieval)

	logging.From(ctx).Debug("context retrieved",
		"search_query", searchQuery,
		"candidates", len(candidates),
		"selected", len(chunks),
	)

	return chunks, nil
}

// filterCandidates walks the distance-sorted candidates, drops everything
// beyond the relevance threshold, caps how many chunks one source document
// may contribute, and stops once the context is full. The per-source cap
// keeps a single long document from crowding out the rest of the corpus.
func filterCandidates(candidates []*model.ScoredChunk, params model.RetrievalParams) []*model.Chunk {
	params = params.Normalize()

	perSource := make(map[string]int)
	selected := make([]*model.Chunk, 0, params.MaxResults)

	for _, cand := range candidates {
		if cand.Distance > params.Threshold {
			continue
		}
		if perSource[cand.Chunk.Source] >= params.MaxPerSource {
			continue
		}

		selected = append(selected, cand.Chunk)
		perSource[cand.Chunk.Source]++

		if len(selected) >= params.MaxResults {
			break
		}
	}

	return selected
}

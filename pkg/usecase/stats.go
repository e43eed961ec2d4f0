package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// Stats reports what the vector index currently holds
func (uc *UseCases) Stats(ctx context.Context) (*model.IndexStats, error) {
	count, err := uc.repo.Chunk().Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count indexed chunks")
	}

	sources, err := uc.repo.Chunk().Sources(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list indexed sources")
	}

	return &model.IndexStats{Chunks: count, Sources: sources}, nil
}

package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/interfaces"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// validateSampleLimit caps how many sources get a per-source probe so the
// check stays cheap on large indexes
const validateSampleLimit = 50

// ValidationIssue is one inconsistency found in the vector index
type ValidationIssue struct {
	Source  string
	ChunkID model.ChunkID
	Message string
}

// ValidationResult holds the results of an index consistency check
type ValidationResult struct {
	Chunks  int
	Sources int
	Issues  []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateIndex checks the vector index behind the use cases
func (uc *UseCases) ValidateIndex(ctx context.Context) (*ValidationResult, error) {
	return ValidateIndex(ctx, uc.repo)
}

// ValidateIndex checks a vector index for inconsistencies. Chunk IDs are
// deterministic, so a listed source whose first chunk cannot be fetched
// points at an interrupted write. The check reads counts first, probes a
// bounded sample of sources, and never modifies data.
func ValidateIndex(ctx context.Context, repo interfaces.Repository) (*ValidationResult, error) {
	count, err := repo.Chunk().Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count chunks")
	}
	sources, err := repo.Chunk().Sources(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sources")
	}

	result := &ValidationResult{Chunks: count, Sources: len(sources)}

	if count == 0 && len(sources) > 0 {
		result.AddIssue(ValidationIssue{
			Message: fmt.Sprintf("%d source(s) listed but no chunks stored", len(sources)),
		})
	}
	if count > 0 && len(sources) == 0 {
		result.AddIssue(ValidationIssue{
			Message: fmt.Sprintf("%d chunk(s) stored but no sources listed", count),
		})
	}

	probed := sources
	if len(probed) > validateSampleLimit {
		probed = probed[:validateSampleLimit]
	}
	for _, source := range probed {
		id := model.NewChunkID(source, 0)
		if _, err := repo.Chunk().Get(ctx, id); err != nil {
			result.AddIssue(ValidationIssue{
				Source:  source,
				ChunkID: id,
				Message: "first chunk is missing, the document may have been partially written",
			})
		}
	}

	return result, nil
}

package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/service/ingest"
	"github.com/verdant-lab/pythia/pkg/utils/errutil"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

// Ingest synchronizes the index with the configured corpus sources. It first
// removes indexed sources that no longer exist, then ingests documents that
// are new (or all of them when refresh is set). A failing document is counted
// and reported in the stats while the rest of the batch proceeds; only
// repository-level failures abort the run.
func (uc *UseCases) Ingest(ctx context.Context, refresh bool) (*model.IngestStats, error) {
	if len(uc.sources) == 0 {
		return nil, goerr.New("no corpus sources configured")
	}

	logger := logging.From(ctx)
	stats := &model.IngestStats{}

	var docs []*model.Document
	current := make(map[string]bool)
	for _, source := range uc.sources {
		for doc, err := range source.Documents(ctx) {
			if err != nil {
				stats.Failed++
				stats.Errors = append(stats.Errors, model.IngestError{
					Source: source.Name(),
					Reason: err.Error(),
				})
				logger.Warn("skipping unreadable document",
					"source", source.Name(),
					"error", err.Error(),
				)
				continue
			}
			docs = append(docs, doc)
			current[doc.Name] = true
		}
	}

	indexed, err := uc.repo.Chunk().Sources(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list indexed sources")
	}

	indexedSet := make(map[string]bool, len(indexed))
	for _, name := range indexed {
		indexedSet[name] = true
		if current[name] {
			continue
		}
		if _, err := uc.repo.Chunk().DeleteBySource(ctx, name); err != nil {
			errutil.Handle(ctx, goerr.Wrap(err, "failed to remove stale source", goerr.V("source", name)), "stale cleanup")
			continue
		}
		stats.Removed++
		logger.Info("removed stale source", "source", name)
	}

	for _, doc := range docs {
		if !refresh && indexedSet[doc.Name] {
			stats.Skipped++
			continue
		}

		written, err := uc.ingestDocument(ctx, doc)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, model.IngestError{
				Source: doc.Name,
				Reason: err.Error(),
			})
			errutil.Handle(ctx, err, "failed to ingest document")
			continue
		}
		if written == 0 {
			// Blank document: nothing indexed, nothing to count
			continue
		}

		stats.Ingested++
		stats.Chunks += written
	}

	// Cached contexts may ground on pre-refresh content
	if uc.cache != nil {
		uc.cache.clear()
	}

	logger.Info("ingestion complete",
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		"removed", stats.Removed,
		"failed", stats.Failed,
		"chunks", stats.Chunks,
	)

	return stats, nil
}

// ingestDocument chunks, embeds, and stores one document, replacing whatever
// the index held under its name. It returns the number of chunks written.
// Embedding runs concurrently, bounded by the configured limit; any failed
// chunk fails the whole document so a source is never indexed half-embedded.
func (uc *UseCases) ingestDocument(ctx context.Context, doc *model.Document) (int, error) {
	meta := ingest.ExtractMetadata(doc.Text)
	chunks := uc.chunker.Split(doc.Name, doc.Text, meta)

	vectors := make([][]float32, len(chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)
	for i, chunk := range chunks {
		eg.Go(func() error {
			vec, err := uc.embedder.Embed(egCtx, chunk.Text)
			if err != nil {
				return goerr.Wrap(err, "failed to embed chunk", goerr.V("chunk_id", chunk.ID.String()))
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	if _, err := uc.repo.Chunk().DeleteBySource(ctx, doc.Name); err != nil {
		return 0, goerr.Wrap(err, "failed to clear previous chunks", goerr.V("source", doc.Name))
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := uc.repo.Chunk().Upsert(ctx, chunks, vectors); err != nil {
		return 0, goerr.Wrap(err, "failed to store chunks", goerr.V("source", doc.Name))
	}

	logging.From(ctx).Debug("document ingested", "source", doc.Name, "chunks", len(chunks))

	return len(chunks), nil
}

package ingest

import (
	"context"
	"iter"

	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// Source produces the documents of one corpus location. Implementations
// yield document and error pairs; a yielded error describes one unreadable
// document and the iteration continues with the next one.
type Source interface {
	// Name identifies the source in logs and ingestion stats
	Name() string
	// Documents yields the documents of this source
	Documents(ctx context.Context) iter.Seq2[*model.Document, error]
}

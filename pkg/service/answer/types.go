package answer

import (
	"context"

	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
)

// Service generates grounded answers from retrieved context under the
// closed-world contract: facts come only from the supplied chunks, and a
// question the context cannot support yields an unknown answer rather than
// an invented one.
type Service interface {
	// Synthesize produces an answer from the query and its retrieved
	// context. Empty context short-circuits to an unknown answer without a
	// model call. A provider failure is returned as an error wrapping
	// llm.ErrGeneration; it is never silently converted into an unknown
	// answer, since "the model is down" and "the corpus does not know" must
	// stay distinguishable for the caller.
	Synthesize(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error)

	// FriendlyUnknown renders an unknown outcome as a short, helpful reply
	// in the user's language. Failures fall back to a static localized
	// message, so this never errors.
	FriendlyUnknown(ctx context.Context, query string, lang types.Language) string
}

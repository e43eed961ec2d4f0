package reformulate

import (
	"context"

	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// Service turns follow-up questions into standalone search queries using the
// conversation history. Both methods degrade instead of failing: an LLM error
// falls back to the unmodified input, so the retrieval pipeline is never
// blocked by a reformulation problem.
type Service interface {
	// Reformulate rewrites the query into a standalone form. With an empty
	// history the query is returned unchanged and no model call is made.
	Reformulate(ctx context.Context, query string, history model.History) string

	// Entities extracts product names and other concrete terms from the
	// recent conversation. Failures yield an empty list.
	Entities(ctx context.Context, history model.History) []string
}

package language

import (
	"context"

	"github.com/verdant-lab/pythia/pkg/domain/types"
)

// Service detects the customer's language and translates English queries
// into Dutch for retrieval against the Dutch corpus. Both operations fail
// soft: detection defaults to Dutch and translation falls back to the
// input text, so a provider outage never breaks the answering pipeline.
type Service interface {
	Detect(ctx context.Context, text string) types.Language
	TranslateForSearch(ctx context.Context, text string) string
}

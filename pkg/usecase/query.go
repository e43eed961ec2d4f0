package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/service/slack"
	"github.com/verdant-lab/pythia/pkg/utils/async"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

// QueryInput is one chat turn to answer
type QueryInput struct {
	SessionID string
	Message   string
	History   model.History
}

// Query answers one customer message against the indexed corpus: detect the
// language, build a standalone search query, retrieve context, and let the
// generator answer inside it. Unknown outcomes are rewritten into a friendly
// reply; handoff requests trigger the Slack notifier without blocking the
// response.
//
// Retrieval and generation failures carry a "language" value so callers can
// apologize in the customer's language.
func (uc *UseCases) Query(ctx context.Context, input *QueryInput) (*model.Answer, error) {
	if input == nil || strings.TrimSpace(input.Message) == "" {
		return nil, goerr.New("message is required")
	}

	logger := logging.From(ctx)
	query := strings.TrimSpace(input.Message)

	lang := uc.languages.Detect(ctx, query)

	searchQuery := uc.buildSearchQuery(ctx, query, input.History, lang)

	chunks, err := uc.contextFor(ctx, searchQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to retrieve context", goerr.V("language", lang.String()))
	}

	ans, err := uc.answers.Synthesize(ctx, query, chunks, input.History, lang)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize answer", goerr.V("language", lang.String()))
	}
	ans.Language = lang.Normalize()

	switch {
	case ans.Unknown:
		logger.Info("question not answerable from corpus",
			"session_id", input.SessionID,
			"query", query,
			"search_query", searchQuery,
		)
		ans.Text = uc.answers.FriendlyUnknown(ctx, query, lang)

	case ans.HumanRequested:
		logger.Info("customer asked for a human",
			"session_id", input.SessionID,
			"query", query,
		)
		uc.notifyHandoff(ctx, input, lang)
	}

	return ans, nil
}

// buildSearchQuery rewrites a follow-up into a standalone query, restores
// conversation entities the rewrite dropped, and translates the result into
// the corpus language. Every step falls back to its input, so the worst
// outcome is searching with the raw message.
func (uc *UseCases) buildSearchQuery(ctx context.Context, query string, history model.History, lang types.Language) string {
	searchQuery := query

	if len(history) > 0 {
		entities := uc.rewriter.Entities(ctx, history)
		searchQuery = uc.rewriter.Reformulate(ctx, query, history)

		for _, entity := range entities {
			if !strings.Contains(strings.ToLower(searchQuery), strings.ToLower(entity)) {
				searchQuery += " " + entity
			}
		}
	}

	// The corpus is Dutch; non-Dutch queries search it poorly
	if lang.Normalize() != types.LanguageDutch {
		searchQuery = uc.languages.TranslateForSearch(ctx, searchQuery)
	}

	if searchQuery != query {
		logging.From(ctx).Debug("search query built",
			"query", query,
			"search_query", searchQuery,
		)
	}

	return searchQuery
}

// contextFor returns the context chunks for a search query, consulting the
// cache first when one is configured
func (uc *UseCases) contextFor(ctx context.Context, searchQuery string) ([]*model.Chunk, error) {
	if uc.cache != nil {
		if chunks, ok := uc.cache.get(searchQuery); ok {
			logging.From(ctx).Debug("context cache hit", "search_query", searchQuery)
			return chunks, nil
		}
	}

	chunks, err := uc.retrieve(ctx, searchQuery)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		uc.cache.put(searchQuery, chunks)
	}

	return chunks, nil
}

func (uc *UseCases) notifyHandoff(ctx context.Context, input *QueryInput, lang types.Language) {
	if uc.notifier == nil {
		return
	}

	handoff := &slack.Handoff{
		SessionID: input.SessionID,
		Question:  strings.TrimSpace(input.Message),
		Language:  lang,
		History:   input.History,
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.NotifyHandoff(ctx, handoff)
	})
}

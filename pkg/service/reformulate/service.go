package reformulate

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

//go:embed prompt/reformulate_system.md
var reformulateSystemPrompt string

//go:embed prompt/entities_system.md
var entitiesSystemPrompt string

const (
	// how much conversation feeds the rewrite: the last two exchanges,
	// with long turns clipped so prior answers cannot blow up the prompt
	reformulateTurns     = 4
	reformulateClipRunes = 200

	entityTurns     = 4
	entityClipRunes = 500

	// a rewritten query longer than this is treated as model commentary
	// rather than a question, and discarded
	maxRewrittenRunes = 400
)

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
}

// New creates a reformulation service backed by the given LLM client
func New(llmClient gollem.LLMClient) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	return &client{llmClient: llmClient}, nil
}

func (c *client) Reformulate(ctx context.Context, query string, history model.History) string {
	if len(history) == 0 {
		return query
	}

	logger := logging.From(ctx)

	recent := history.Tail(reformulateTurns).Clipped(reformulateClipRunes)
	prompt := fmt.Sprintf(
		"Conversation history:\n%s\n\nFollow-up question: %s\n\nRewritten standalone question:",
		renderHistory(recent), query,
	)

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(reformulateSystemPrompt),
	)
	if err != nil {
		logger.Warn("query reformulation failed, using original query", "error", err.Error())
		return query
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		logger.Warn("query reformulation failed, using original query", "error", err.Error())
		return query
	}

	rewritten := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if !isPlausibleQuery(rewritten) {
		logger.Warn("discarding implausible reformulation output",
			"query", query, "output", rewritten)
		return query
	}

	logger.Debug("query reformulated", "from", query, "to", rewritten)
	return rewritten
}

func (c *client) Entities(ctx context.Context, history model.History) []string {
	if len(history) == 0 {
		return nil
	}

	logger := logging.From(ctx)

	recent := history.Tail(entityTurns).Clipped(entityClipRunes)
	prompt := fmt.Sprintf("Conversation:\n%s\n\nEntities:", renderHistory(recent))

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(entitiesSystemPrompt),
	)
	if err != nil {
		logger.Warn("entity extraction failed", "error", err.Error())
		return nil
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		logger.Warn("entity extraction failed", "error", err.Error())
		return nil
	}

	return parseEntityList(strings.Join(resp.Texts, ","))
}

// isPlausibleQuery accepts a single-line rewrite of sane length. Anything
// else means the model wrapped its answer in commentary, and the original
// query is the safer search input.
func isPlausibleQuery(s string) bool {
	if s == "" || strings.Contains(s, "\n") {
		return false
	}
	return utf8.RuneCountInString(s) <= maxRewrittenRunes
}

func parseEntityList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NONE") {
		return nil
	}

	var entities []string
	for _, part := range strings.Split(raw, ",") {
		if e := strings.TrimSpace(part); e != "" {
			entities = append(entities, e)
		}
	}
	return entities
}

func renderHistory(history model.History) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		label := "User"
		if turn.Role == types.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

package answer

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/model/config"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/service/llm"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

//go:embed prompt/answer_system_nl.md
var answerSystemNLRaw string

//go:embed prompt/answer_system_en.md
var answerSystemENRaw string

//go:embed prompt/unknown_system_nl.md
var unknownSystemNL string

//go:embed prompt/unknown_system_en.md
var unknownSystemEN string

var (
	answerSystemNL = template.Must(template.New("answer_system_nl").Parse(answerSystemNLRaw))
	answerSystemEN = template.Must(template.New("answer_system_en").Parse(answerSystemENRaw))
)

const (
	// how many prior turns the model sees verbatim
	historyTurns = 10

	// the summary repeats the assistant's own recent claims so a follow-up
	// answer cannot contradict what the customer was already told
	summaryScanTurns  = 6
	summaryStatements = 2
	summaryClipRunes  = 200
)

const (
	fallbackUnknownNL = "Hmm, daar heb ik helaas geen specifieke informatie over. Kan ik je ergens anders mee helpen?"
	fallbackUnknownEN = "Hmm, I don't have specific information about that. Can I help you with something else?"
)

type systemPromptVars struct {
	Personality string
	BotName     string
	Topics      string
	ProductLine string
	UseEmojis   bool
}

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	profile   *config.Profile
}

// New creates an answer synthesis service speaking with the given brand profile
func New(llmClient gollem.LLMClient, profile *config.Profile) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if profile == nil {
		return nil, goerr.New("brand profile is required")
	}

	return &client{
		llmClient: llmClient,
		profile:   profile,
	}, nil
}

func (c *client) Synthesize(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error) {
	logger := logging.From(ctx)

	if len(chunks) == 0 {
		logger.Debug("no context retrieved, answering unknown without generation",
			"query", query,
		)
		return model.ParseAnswer(model.UnknownSignal, nil), nil
	}

	systemPrompt, err := c.buildSystemPrompt(lang)
	if err != nil {
		return nil, err
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(llm.ErrGeneration, "failed to create generation session",
			goerr.V("cause", err.Error()),
		)
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(query, chunks, history, lang)))
	if err != nil {
		return nil, goerr.Wrap(llm.ErrGeneration, "generation request failed",
			goerr.V("cause", err.Error()),
		)
	}

	raw := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if raw == "" {
		return nil, goerr.Wrap(llm.ErrGeneration, "empty generation response")
	}

	answer := model.ParseAnswer(raw, chunks)
	switch {
	case answer.Unknown:
		logger.Debug("model answered unknown", "query", query)
	case answer.HumanRequested:
		logger.Debug("model requested human handoff", "query", query)
	}

	return answer, nil
}

func (c *client) FriendlyUnknown(ctx context.Context, query string, lang types.Language) string {
	logger := logging.From(ctx)

	systemPrompt := unknownSystemNL
	userPrompt := "Klant vraagt: " + query
	fallback := fallbackUnknownNL
	if lang.Normalize() == types.LanguageEnglish {
		systemPrompt = unknownSystemEN
		userPrompt = "Customer asks: " + query
		fallback = fallbackUnknownEN
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		logger.Warn("friendly unknown generation failed, using static fallback",
			"error", err.Error(),
		)
		return fallback
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(userPrompt))
	if err != nil {
		logger.Warn("friendly unknown generation failed, using static fallback",
			"error", err.Error(),
		)
		return fallback
	}

	if text := strings.TrimSpace(strings.Join(resp.Texts, "\n")); text != "" {
		return text
	}
	return fallback
}

func (c *client) buildSystemPrompt(lang types.Language) (string, error) {
	tmpl := answerSystemNL
	if lang.Normalize() == types.LanguageEnglish {
		tmpl = answerSystemEN
	}

	var sb strings.Builder
	err := tmpl.Execute(&sb, systemPromptVars{
		Personality: c.profile.Personality(lang),
		BotName:     c.profile.AssistantName,
		Topics:      strings.Join(c.profile.Topics, ", "),
		ProductLine: c.profile.ProductLine,
		UseEmojis:   c.profile.UseEmojis,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to render answer system prompt")
	}

	return sb.String(), nil
}

func buildUserPrompt(query string, chunks []*model.Chunk, history model.History, lang types.Language) string {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var sb strings.Builder
	if recent := history.Tail(historyTurns); len(recent) > 0 {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(renderHistory(recent))
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Context:\n%s\n%s\n\nQuestion: %s",
		strings.Join(texts, "\n\n"),
		conversationSummary(history, lang),
		query,
	)

	return sb.String()
}

// conversationSummary restates the assistant's last statements so the model
// does not deny products or prices it already mentioned in this conversation
func conversationSummary(history model.History, lang types.Language) string {
	var statements []string
	for _, turn := range history.Tail(summaryScanTurns).Clipped(summaryClipRunes) {
		if turn.Role == types.RoleAssistant {
			statements = append(statements, turn.Content)
		}
	}
	if len(statements) > summaryStatements {
		statements = statements[len(statements)-summaryStatements:]
	}
	if len(statements) == 0 {
		return ""
	}

	var sb strings.Builder
	if lang.Normalize() == types.LanguageEnglish {
		sb.WriteString("\n\nIMPORTANT - Your recent statements in this conversation:\n")
		for _, stmt := range statements {
			sb.WriteString("- You said: " + stmt + "\n")
		}
		sb.WriteString("Do NOT contradict these statements. Reference them if relevant.\n")
	} else {
		sb.WriteString("\n\nBELANGRIJK - Je recente uitspraken in dit gesprek:\n")
		for _, stmt := range statements {
			sb.WriteString("- Je zei: " + stmt + "\n")
		}
		sb.WriteString("Spreek dit NIET tegen. Verwijs ernaar waar relevant.\n")
	}

	return sb.String()
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

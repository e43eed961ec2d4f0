package language

import (
	"context"
	_ "embed"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

//go:embed prompt/detect_system.md
var detectSystemPrompt string

//go:embed prompt/translate_system.md
var translateSystemPrompt string

// texts shorter than this are too ambiguous to classify; the corpus owner
// is Dutch, so short greetings like "hoi" or "ok" stay Dutch
const minDetectRunes = 5

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
}

// New creates a language service backed by the given LLM client
func New(llmClient gollem.LLMClient) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	return &client{llmClient: llmClient}, nil
}

func (c *client) Detect(ctx context.Context, text string) types.Language {
	logger := logging.From(ctx)

	if utf8.RuneCountInString(strings.TrimSpace(text)) < minDetectRunes {
		return types.LanguageDutch
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(detectSystemPrompt),
	)
	if err != nil {
		logger.Warn("language detection failed, defaulting to Dutch", "error", err.Error())
		return types.LanguageDutch
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(text))
	if err != nil {
		logger.Warn("language detection failed, defaulting to Dutch", "error", err.Error())
		return types.LanguageDutch
	}

	code := strings.ToLower(strings.TrimSpace(strings.Join(resp.Texts, "")))
	lang, err := types.ParseLanguage(code)
	if err != nil {
		logger.Debug("unrecognized language detection output, defaulting to Dutch",
			"output", code,
		)
		return types.LanguageDutch
	}

	logger.Debug("language detected", "language", lang.String())
	return lang
}

func (c *client) TranslateForSearch(ctx context.Context, text string) string {
	logger := logging.From(ctx)

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(translateSystemPrompt),
	)
	if err != nil {
		logger.Warn("search translation failed, using original text", "error", err.Error())
		return text
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(text))
	if err != nil {
		logger.Warn("search translation failed, using original text", "error", err.Error())
		return text
	}

	translated := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if translated == "" {
		return text
	}

	logger.Debug("translated query for search", "from", text, "to", translated)
	return translated
}

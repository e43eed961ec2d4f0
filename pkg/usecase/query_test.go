package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/repository/memory"
	"github.com/verdant-lab/pythia/pkg/service/llm"
	"github.com/verdant-lab/pythia/pkg/service/slack"
	"github.com/verdant-lab/pythia/pkg/usecase"
)

type mockEmbedder struct {
	mu      sync.Mutex
	embedFn func(ctx context.Context, text string) ([]float32, error)
	texts   []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) Dimension() int { return 3 }

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

func (m *mockEmbedder) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type synthCall struct {
	query  string
	chunks []*model.Chunk
	lang   types.Language
}

type mockAnswers struct {
	synthesizeFn  func(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error)
	friendlyFn    func(ctx context.Context, query string, lang types.Language) string
	synthCalls    []synthCall
	friendlyCalls []string
}

func (m *mockAnswers) Synthesize(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error) {
	m.synthCalls = append(m.synthCalls, synthCall{query: query, chunks: chunks, lang: lang})

	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, query, chunks, history, lang)
	}
	return model.ParseAnswer("De bodem bedek je het best met houtmulch.", chunks), nil
}

func (m *mockAnswers) FriendlyUnknown(ctx context.Context, query string, lang types.Language) string {
	m.friendlyCalls = append(m.friendlyCalls, query)

	if m.friendlyFn != nil {
		return m.friendlyFn(ctx, query, lang)
	}
	return "Hmm, daar heb ik helaas geen specifieke informatie over."
}

type mockRewriter struct {
	reformulateFn func(ctx context.Context, query string, history model.History) string
	entitiesFn    func(ctx context.Context, history model.History) []string
	reformulates  int
}

func (m *mockRewriter) Reformulate(ctx context.Context, query string, history model.History) string {
	m.reformulates++
	if m.reformulateFn != nil {
		return m.reformulateFn(ctx, query, history)
	}
	return query
}

func (m *mockRewriter) Entities(ctx context.Context, history model.History) []string {
	if m.entitiesFn != nil {
		return m.entitiesFn(ctx, history)
	}
	return nil
}

type mockLanguages struct {
	lang        types.Language
	translateFn func(ctx context.Context, text string) string
	translates  int
}

func (m *mockLanguages) Detect(ctx context.Context, text string) types.Language {
	if m.lang == "" {
		return types.LanguageDutch
	}
	return m.lang
}

func (m *mockLanguages) TranslateForSearch(ctx context.Context, text string) string {
	m.translates++
	if m.translateFn != nil {
		return m.translateFn(ctx, text)
	}
	return text
}

type mockNotifier struct {
	handoffs chan *slack.Handoff
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{handoffs: make(chan *slack.Handoff, 1)}
}

func (m *mockNotifier) NotifyHandoff(ctx context.Context, handoff *slack.Handoff) error {
	m.handoffs <- handoff
	return nil
}

type testEnv struct {
	uc        *usecase.UseCases
	repo      *memory.Memory
	embedder  *mockEmbedder
	answers   *mockAnswers
	rewriter  *mockRewriter
	languages *mockLanguages
}

func newTestEnv(t *testing.T, opts ...usecase.Option) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:      memory.New(),
		embedder:  &mockEmbedder{},
		answers:   &mockAnswers{},
		rewriter:  &mockRewriter{},
		languages: &mockLanguages{},
	}

	uc, err := usecase.New(env.repo, env.embedder, env.answers, env.rewriter, env.languages, opts...)
	gt.NoError(t, err).Required()
	env.uc = uc

	return env
}

// seed indexes one chunk per text under the source, all at the embedding the
// mock embedder returns, so every seeded chunk matches every query exactly
func (env *testEnv) seed(t *testing.T, source string, texts ...string) {
	t.Helper()

	chunks := make([]*model.Chunk, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = model.NewChunk(source, i, text, model.Metadata{})
		vectors[i] = []float32{1, 0, 0}
	}

	gt.NoError(t, env.repo.Chunk().Upsert(context.Background(), chunks, vectors)).Required()
}

func TestQuery_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.uc.Query(ctx, nil)
	gt.Error(t, err)

	_, err = env.uc.Query(ctx, &usecase.QueryInput{Message: "   \n"})
	gt.Error(t, err)
}

func TestQuery_AnswersFromRetrievedContext(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "houtmulch.txt", "Houtmulch kost 7,50 per zak van 50 liter.")
	env.seed(t, "bezorging.txt", "Bezorging binnen Nederland kost 4,95.")

	ans, err := env.uc.Query(ctx, &usecase.QueryInput{
		SessionID: "sess-1",
		Message:   "Wat kost houtmulch?",
	})
	gt.NoError(t, err).Required()

	gt.V(t, ans).NotNil()
	gt.B(t, ans.Unknown).False()
	gt.B(t, ans.HumanRequested).False()
	gt.V(t, ans.Language).Equal(types.LanguageDutch)
	gt.A(t, ans.Sources).Length(2)

	// No history, so the query goes to search as-is
	gt.V(t, env.embedder.lastText()).Equal("Wat kost houtmulch?")
	gt.Number(t, env.rewriter.reformulates).Equal(0)
	gt.Number(t, env.languages.translates).Equal(0)

	gt.A(t, env.answers.synthCalls).Length(1)
	gt.V(t, env.answers.synthCalls[0].query).Equal("Wat kost houtmulch?")
	gt.V(t, env.answers.synthCalls[0].lang).Equal(types.LanguageDutch)
	gt.A(t, env.answers.synthCalls[0].chunks).Length(2)
}

func TestQuery_FollowUpBuildsStandaloneSearchQuery(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "houtmulch.txt", "Houtmulch wordt binnen twee werkdagen bezorgd.")

	env.rewriter.reformulateFn = func(ctx context.Context, query string, history model.History) string {
		return "wanneer wordt Houtmulch bezorgd"
	}
	env.rewriter.entitiesFn = func(ctx context.Context, history model.History) []string {
		return []string{"houtmulch", "boomschors"}
	}

	history := model.History{
		{Role: types.RoleUser, Content: "Wat kost houtmulch?"},
		{Role: types.RoleAssistant, Content: "Houtmulch kost 7,50 per zak."},
	}

	_, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "En wanneer wordt het bezorgd?", History: history})
	gt.NoError(t, err).Required()

	// The rewrite already names houtmulch, so only the missing entity
	// is appended
	gt.V(t, env.embedder.lastText()).Equal("wanneer wordt Houtmulch bezorgd boomschors")
	gt.Number(t, env.rewriter.reformulates).Equal(1)
}

func TestQuery_EnglishQuerySearchesInDutch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "bezorging.txt", "Bezorging binnen Nederland kost 4,95.")

	env.languages.lang = types.LanguageEnglish
	env.languages.translateFn = func(ctx context.Context, text string) string {
		gt.V(t, text).Equal("What are the delivery costs?")
		return "Wat zijn de bezorgkosten?"
	}

	ans, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "What are the delivery costs?"})
	gt.NoError(t, err).Required()

	gt.V(t, env.embedder.lastText()).Equal("Wat zijn de bezorgkosten?")
	gt.Number(t, env.languages.translates).Equal(1)

	// The generator still sees the customer's own words and language
	gt.V(t, env.answers.synthCalls[0].query).Equal("What are the delivery costs?")
	gt.V(t, env.answers.synthCalls[0].lang).Equal(types.LanguageEnglish)
	gt.V(t, ans.Language).Equal(types.LanguageEnglish)
	gt.A(t, ans.Sources).Length(1)
}

func TestQuery_RepeatedQuestionHitsContextCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "houtmulch.txt", "Houtmulch kost 7,50 per zak van 50 liter.")

	first, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "Wat kost houtmulch?"})
	gt.NoError(t, err).Required()
	gt.Number(t, env.embedder.calls()).Equal(1)

	second, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "Wat kost houtmulch?"})
	gt.NoError(t, err).Required()

	// The cached context answered the repeat without touching the embedder
	gt.Number(t, env.embedder.calls()).Equal(1)
	gt.A(t, second.Sources).Length(len(first.Sources))
}

func TestQuery_CacheDisabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, usecase.WithoutContextCache())
	env.seed(t, "houtmulch.txt", "Houtmulch kost 7,50 per zak van 50 liter.")

	_, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "Wat kost houtmulch?"})
	gt.NoError(t, err).Required()
	_, err = env.uc.Query(ctx, &usecase.QueryInput{Message: "Wat kost houtmulch?"})
	gt.NoError(t, err).Required()

	gt.Number(t, env.embedder.calls()).Equal(2)
}

func TestQuery_UnknownGetsFriendlyText(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.answers.synthesizeFn = func(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error) {
		return model.ParseAnswer(model.UnknownSignal, nil), nil
	}

	ans, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "Verkopen jullie ook tuinkabouters?"})
	gt.NoError(t, err).Required()

	gt.B(t, ans.Unknown).True()
	gt.S(t, ans.Text).NotContains(model.UnknownSignal)
	gt.S(t, ans.Text).Contains("geen specifieke informatie")
	gt.A(t, env.answers.friendlyCalls).Length(1)
	gt.V(t, env.answers.friendlyCalls[0]).Equal("Verkopen jullie ook tuinkabouters?")
}

func TestQuery_HumanRequestNotifiesSlack(t *testing.T) {
	ctx := context.Background()
	notifier := newMockNotifier()
	env := newTestEnv(t, usecase.WithNotifier(notifier))

	env.answers.synthesizeFn = func(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error) {
		return model.ParseAnswer(model.HumanRequestedSignal, nil), nil
	}

	history := model.History{
		{Role: types.RoleUser, Content: "Mijn bestelling is niet aangekomen."},
		{Role: types.RoleAssistant, Content: "Wat vervelend! Kun je je ordernummer delen?"},
	}

	ans, err := env.uc.Query(ctx, &usecase.QueryInput{
		SessionID: "sess-42",
		Message:   "Ik wil een medewerker spreken",
		History:   history,
	})
	gt.NoError(t, err).Required()
	gt.B(t, ans.HumanRequested).True()

	select {
	case handoff := <-notifier.handoffs:
		gt.V(t, handoff.SessionID).Equal("sess-42")
		gt.V(t, handoff.Question).Equal("Ik wil een medewerker spreken")
		gt.V(t, handoff.Language).Equal(types.LanguageDutch)
		gt.A(t, handoff.History).Length(2)
	case <-time.After(time.Second):
		t.Fatal("handoff notification never arrived")
	}
}

func TestQuery_EmbeddingFailureCarriesLanguage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.languages.lang = types.LanguageEnglish

	env.embedder.embedFn = func(ctx context.Context, text string) ([]float32, error) {
		return nil, goerr.Wrap(llm.ErrEmbedding, "provider unavailable")
	}

	_, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "What is wood mulch?"})
	gt.Error(t, err)
	gt.B(t, errors.Is(err, llm.ErrEmbedding)).True()

	ge := goerr.Unwrap(err)
	gt.V(t, ge).NotNil()
	gt.V(t, ge.Values()["language"]).Equal("en")
}

func TestQuery_GenerationFailureCarriesLanguage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "houtmulch.txt", "Houtmulch kost 7,50 per zak van 50 liter.")

	env.answers.synthesizeFn = func(ctx context.Context, query string, chunks []*model.Chunk, history model.History, lang types.Language) (*model.Answer, error) {
		return nil, goerr.Wrap(llm.ErrGeneration, "model timed out")
	}

	_, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "Wat kost houtmulch?"})
	gt.Error(t, err)
	gt.B(t, errors.Is(err, llm.ErrGeneration)).True()

	ge := goerr.Unwrap(err)
	gt.V(t, ge).NotNil()
	gt.V(t, ge.Values()["language"]).Equal("nl")
}

func TestQuery_MessageIsTrimmed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seed(t, "houtmulch.txt", "Houtmulch kost 7,50 per zak van 50 liter.")

	_, err := env.uc.Query(ctx, &usecase.QueryInput{Message: "  Wat kost houtmulch?\n"})
	gt.NoError(t, err).Required()

	gt.B(t, strings.HasPrefix(env.embedder.lastText(), " ")).False()
	gt.V(t, env.answers.synthCalls[0].query).Equal("Wat kost houtmulch?")
}

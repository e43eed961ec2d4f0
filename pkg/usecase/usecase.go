package usecase

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/interfaces"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/service/answer"
	"github.com/verdant-lab/pythia/pkg/service/ingest"
	"github.com/verdant-lab/pythia/pkg/service/language"
	"github.com/verdant-lab/pythia/pkg/service/llm"
	"github.com/verdant-lab/pythia/pkg/service/reformulate"
	"github.com/verdant-lab/pythia/pkg/service/slack"
)

const (
	defaultCacheTTL         = 5 * time.Minute
	defaultEmbedConcurrency = 4
)

// UseCases wires the answering and ingestion pipelines over the index and
// the LLM-backed services
type UseCases struct {
	repo        interfaces.Repository
	embedder    llm.Embedder
	answers     answer.Service
	rewriter    reformulate.Service
	languages   language.Service
	notifier    slack.Service // optional, human-handoff notices
	sources     []ingest.Source
	chunker     *ingest.Chunker
	retrieval   model.RetrievalParams
	cache       *contextCache // nil when disabled
	concurrency int
}

// Option is a functional option for UseCases configuration
type Option func(*UseCases)

// WithNotifier enables Slack notices for human-handoff answers
func WithNotifier(notifier slack.Service) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

// WithSources sets the corpus sources for ingestion
func WithSources(sources ...ingest.Source) Option {
	return func(uc *UseCases) {
		uc.sources = append(uc.sources, sources...)
	}
}

// WithChunker overrides the default document chunker
func WithChunker(chunker *ingest.Chunker) Option {
	return func(uc *UseCases) {
		uc.chunker = chunker
	}
}

// WithRetrievalParams overrides the retrieval tuning
func WithRetrievalParams(params model.RetrievalParams) Option {
	return func(uc *UseCases) {
		uc.retrieval = params.Normalize()
	}
}

// WithContextCacheTTL overrides how long retrieved contexts are reused
func WithContextCacheTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		if ttl > 0 {
			uc.cache = newContextCache(ttl)
		}
	}
}

// WithoutContextCache disables context reuse across requests
func WithoutContextCache() Option {
	return func(uc *UseCases) {
		uc.cache = nil
	}
}

// WithIngestConcurrency bounds how many chunks are embedded in parallel
// during ingestion
func WithIngestConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// New creates the use case layer. The repository, embedder and the three
// LLM-backed services are required; everything else is optional.
func New(
	repo interfaces.Repository,
	embedder llm.Embedder,
	answers answer.Service,
	rewriter reformulate.Service,
	languages language.Service,
	opts ...Option,
) (*UseCases, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if answers == nil {
		return nil, goerr.New("answer service is required")
	}
	if rewriter == nil {
		return nil, goerr.New("reformulation service is required")
	}
	if languages == nil {
		return nil, goerr.New("language service is required")
	}

	uc := &UseCases{
		repo:        repo,
		embedder:    embedder,
		answers:     answers,
		rewriter:    rewriter,
		languages:   languages,
		chunker:     ingest.DefaultChunker(),
		retrieval:   model.DefaultRetrievalParams(),
		cache:       newContextCache(defaultCacheTTL),
		concurrency: defaultEmbedConcurrency,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc, nil
}

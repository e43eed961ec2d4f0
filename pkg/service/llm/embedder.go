package llm

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"golang.org/x/time/rate"
)

type embedder struct {
	llmClient gollem.LLMClient
	dimension int
	limiter   *rate.Limiter
}

// Option is a functional option for embedder configuration
type Option func(*embedder)

// WithDimension overrides the embedding vector size
func WithDimension(dimension int) Option {
	return func(e *embedder) {
		e.dimension = dimension
	}
}

// WithRateLimit throttles embedding calls, mainly for bulk ingestion runs
// against providers with per-minute quotas
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *embedder) {
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewEmbedder creates an Embedder backed by the provided LLM client
func NewEmbedder(llmClient gollem.LLMClient, opts ...Option) (Embedder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	e := &embedder{
		llmClient: llmClient,
		dimension: model.DefaultEmbeddingDimension,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

func (e *embedder) Dimension() int {
	return e.dimension
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, goerr.Wrap(ErrEmbedding, "rate limiter interrupted", goerr.V("cause", err.Error()))
		}
	}

	embeddings, err := e.llmClient.GenerateEmbedding(ctx, e.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(ErrEmbedding, "embedding request failed", goerr.V("cause", err.Error()))
	}

	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrEmbedding, "no embedding returned")
	}

	// Convert float64 to float32
	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	return result, nil
}

package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/service/llm"
)

// LLM holds CLI flags for the provider powering generation and embeddings.
// One client serves both: the reformulator, the synthesizer and the language
// service share it with the embedder.
type LLM struct {
	provider       string
	apiKey         string
	model          string
	embeddingModel string
	geminiProject  string
	geminiLocation string
	dimension      int
	embedRate      float64
	embedBurst     int
}

// Flags returns CLI flags for LLM configuration
func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (openai, gemini or claude)",
			Category:    "LLM",
			Value:       "openai",
			Sources:     cli.EnvVars("PYTHIA_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "llm-api-key",
			Usage:       "API key for the LLM provider (openai and claude)",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_LLM_API_KEY", "OPENAI_API_KEY"),
			Destination: &x.apiKey,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Usage:       "Generation model name (provider default when empty)",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_LLM_MODEL"),
			Destination: &x.model,
		},
		&cli.StringFlag{
			Name:        "llm-embedding-model",
			Usage:       "Embedding model name (provider default when empty)",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_LLM_EMBEDDING_MODEL"),
			Destination: &x.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID (gemini provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location (gemini provider)",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("PYTHIA_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector size; must match the vector index",
			Category:    "LLM",
			Value:       model.DefaultEmbeddingDimension,
			Sources:     cli.EnvVars("PYTHIA_EMBEDDING_DIMENSION"),
			Destination: &x.dimension,
		},
		&cli.FloatFlag{
			Name:        "embedding-rate-limit",
			Usage:       "Embedding requests per second during ingestion (0 disables throttling)",
			Category:    "LLM",
			Sources:     cli.EnvVars("PYTHIA_EMBEDDING_RATE_LIMIT"),
			Destination: &x.embedRate,
		},
		&cli.IntFlag{
			Name:        "embedding-rate-burst",
			Usage:       "Burst size for the embedding rate limiter",
			Category:    "LLM",
			Value:       1,
			Sources:     cli.EnvVars("PYTHIA_EMBEDDING_RATE_BURST"),
			Destination: &x.embedBurst,
		},
	}
}

// Configure creates the LLM client for the configured provider
func (x *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch x.provider {
	case "openai":
		if x.apiKey == "" {
			return nil, goerr.New("llm-api-key is required for the openai provider")
		}
		var opts []openai.Option
		if x.model != "" {
			opts = append(opts, openai.WithModel(x.model))
		}
		if x.embeddingModel != "" {
			opts = append(opts, openai.WithEmbeddingModel(x.embeddingModel))
		}
		client, err := openai.New(ctx, x.apiKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	case "gemini":
		if x.geminiProject == "" {
			return nil, goerr.New("gemini-project is required for the gemini provider")
		}
		var opts []gemini.Option
		if x.model != "" {
			opts = append(opts, gemini.WithModel(x.model))
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "claude":
		if x.apiKey == "" {
			return nil, goerr.New("llm-api-key is required for the claude provider")
		}
		var opts []claude.Option
		if x.model != "" {
			opts = append(opts, claude.WithModel(x.model))
		}
		client, err := claude.New(ctx, x.apiKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Claude client")
		}
		return client, nil

	default:
		return nil, goerr.New("invalid LLM provider", goerr.V(ProviderKey, x.provider))
	}
}

// ConfigureEmbedder wraps the LLM client in an embedder with the configured
// dimension and, when set, the ingestion rate limit
func (x *LLM) ConfigureEmbedder(client gollem.LLMClient) (llm.Embedder, error) {
	opts := []llm.Option{llm.WithDimension(x.dimension)}
	if x.embedRate > 0 {
		opts = append(opts, llm.WithRateLimit(x.embedRate, x.embedBurst))
	}
	return llm.NewEmbedder(client, opts...)
}

// Dimension returns the configured embedding vector size
func (x *LLM) Dimension() int {
	return x.dimension
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.Int("api-key.len", len(x.apiKey)),
		slog.String("model", x.model),
		slog.String("embedding-model", x.embeddingModel),
		slog.Int("dimension", x.dimension),
	)
}

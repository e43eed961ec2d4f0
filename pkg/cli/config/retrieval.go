package config

import (
	"time"

	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/usecase"
)

// Retrieval holds CLI flags tuning context selection and the engine caches
type Retrieval struct {
	candidates   int
	threshold    float64
	maxPerSource int
	maxResults   int
	cacheTTL     time.Duration
	noCache      bool
	concurrency  int
}

// Flags returns CLI flags for retrieval tuning
func (x *Retrieval) Flags() []cli.Flag {
	defaults := model.DefaultRetrievalParams()
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "retrieval-candidates",
			Usage:       "Nearest neighbors fetched from the index per query",
			Category:    "Retrieval",
			Value:       defaults.Candidates,
			Sources:     cli.EnvVars("PYTHIA_RETRIEVAL_CANDIDATES"),
			Destination: &x.candidates,
		},
		&cli.FloatFlag{
			Name:        "retrieval-threshold",
			Usage:       "Maximum cosine distance for a chunk to count as relevant",
			Category:    "Retrieval",
			Value:       defaults.Threshold,
			Sources:     cli.EnvVars("PYTHIA_RETRIEVAL_THRESHOLD"),
			Destination: &x.threshold,
		},
		&cli.IntFlag{
			Name:        "retrieval-max-per-source",
			Usage:       "Maximum chunks taken from one source document",
			Category:    "Retrieval",
			Value:       defaults.MaxPerSource,
			Sources:     cli.EnvVars("PYTHIA_RETRIEVAL_MAX_PER_SOURCE"),
			Destination: &x.maxPerSource,
		},
		&cli.IntFlag{
			Name:        "retrieval-max-results",
			Usage:       "Maximum chunks handed to the synthesizer",
			Category:    "Retrieval",
			Value:       defaults.MaxResults,
			Sources:     cli.EnvVars("PYTHIA_RETRIEVAL_MAX_RESULTS"),
			Destination: &x.maxResults,
		},
		&cli.DurationFlag{
			Name:        "context-cache-ttl",
			Usage:       "How long retrieved contexts are reused for identical search queries",
			Category:    "Retrieval",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("PYTHIA_CONTEXT_CACHE_TTL"),
			Destination: &x.cacheTTL,
		},
		&cli.BoolFlag{
			Name:        "no-context-cache",
			Usage:       "Disable the retrieved-context cache",
			Category:    "Retrieval",
			Sources:     cli.EnvVars("PYTHIA_NO_CONTEXT_CACHE"),
			Destination: &x.noCache,
		},
		&cli.IntFlag{
			Name:        "ingest-concurrency",
			Usage:       "Concurrent embedding requests per document during ingestion",
			Category:    "Retrieval",
			Value:       4,
			Sources:     cli.EnvVars("PYTHIA_INGEST_CONCURRENCY"),
			Destination: &x.concurrency,
		},
	}
}

// Params returns the retrieval parameters built from the flags
func (x *Retrieval) Params() model.RetrievalParams {
	return model.RetrievalParams{
		Candidates:   x.candidates,
		Threshold:    x.threshold,
		MaxPerSource: x.maxPerSource,
		MaxResults:   x.maxResults,
	}
}

// Options returns the use case options built from the flags
func (x *Retrieval) Options() []usecase.Option {
	opts := []usecase.Option{usecase.WithRetrievalParams(x.Params())}

	if x.noCache {
		opts = append(opts, usecase.WithoutContextCache())
	} else if x.cacheTTL > 0 {
		opts = append(opts, usecase.WithContextCacheTTL(x.cacheTTL))
	}

	if x.concurrency > 0 {
		opts = append(opts, usecase.WithIngestConcurrency(x.concurrency))
	}

	return opts
}

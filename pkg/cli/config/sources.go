package config

import (
	"context"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/service/ingest"
)

// Sources holds CLI flags for the corpus locations and the chunking window
type Sources struct {
	kbDir          string
	gcsBucket      string
	gcsPrefix      string
	notionToken    string
	notionDatabase string
	chunkSize      int
	chunkOverlap   int
}

// Flags returns CLI flags for corpus source configuration
func (x *Sources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "kb-dir",
			Usage:       "Local knowledge base directory (.txt and .md files)",
			Category:    "Corpus",
			Sources:     cli.EnvVars("PYTHIA_KB_DIR"),
			Destination: &x.kbDir,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "GCS bucket holding corpus files",
			Category:    "Corpus",
			Sources:     cli.EnvVars("PYTHIA_GCS_BUCKET"),
			Destination: &x.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix within the GCS bucket",
			Category:    "Corpus",
			Sources:     cli.EnvVars("PYTHIA_GCS_PREFIX"),
			Destination: &x.gcsPrefix,
		},
		&cli.StringFlag{
			Name:        "notion-token",
			Usage:       "Notion API token for corpus pages",
			Category:    "Corpus",
			Sources:     cli.EnvVars("PYTHIA_NOTION_TOKEN"),
			Destination: &x.notionToken,
		},
		&cli.StringFlag{
			Name:        "notion-database",
			Usage:       "Notion database ID holding corpus pages",
			Category:    "Corpus",
			Sources:     cli.EnvVars("PYTHIA_NOTION_DATABASE"),
			Destination: &x.notionDatabase,
		},
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk window size in characters",
			Category:    "Corpus",
			Value:       ingest.DefaultChunkSize,
			Sources:     cli.EnvVars("PYTHIA_CHUNK_SIZE"),
			Destination: &x.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlap between consecutive chunks in characters",
			Category:    "Corpus",
			Value:       ingest.DefaultChunkOverlap,
			Sources:     cli.EnvVars("PYTHIA_CHUNK_OVERLAP"),
			Destination: &x.chunkOverlap,
		},
	}
}

// IsConfigured checks if at least one corpus source is configured
func (x *Sources) IsConfigured() bool {
	return x.kbDir != "" || x.gcsBucket != "" || x.notionToken != ""
}

// KBDir returns the local knowledge base directory, if configured
func (x *Sources) KBDir() string {
	return x.kbDir
}

// Configure builds the configured corpus sources. An empty slice means the
// server answers from whatever the index already holds.
func (x *Sources) Configure(ctx context.Context) ([]ingest.Source, error) {
	var sources []ingest.Source

	if x.kbDir != "" {
		sources = append(sources, ingest.NewDirSource(x.kbDir))
	}

	if x.gcsBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GCS client")
		}
		src, err := ingest.NewBucketSource(client, x.gcsBucket, x.gcsPrefix)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure GCS corpus source")
		}
		sources = append(sources, src)
	}

	if x.notionToken != "" {
		if x.notionDatabase == "" {
			return nil, goerr.New("notion-database is required when notion-token is set")
		}
		src, err := ingest.NewNotionSource(x.notionToken, x.notionDatabase)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure Notion corpus source")
		}
		sources = append(sources, src)
	}

	return sources, nil
}

// ConfigureChunker validates the chunking window and builds the chunker
func (x *Sources) ConfigureChunker() (*ingest.Chunker, error) {
	chunker, err := ingest.NewChunker(x.chunkSize, x.chunkOverlap)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid chunking window")
	}
	return chunker, nil
}

func (x Sources) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kb-dir", x.kbDir),
		slog.String("gcs-bucket", x.gcsBucket),
		slog.Bool("notion", x.notionToken != ""),
		slog.Int("chunk-size", x.chunkSize),
		slog.Int("chunk-overlap", x.chunkOverlap),
	)
}

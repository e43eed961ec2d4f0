package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/cli/config"
	"github.com/verdant-lab/pythia/pkg/domain/interfaces"
	domainConfig "github.com/verdant-lab/pythia/pkg/domain/model/config"
	"github.com/verdant-lab/pythia/pkg/service/answer"
	"github.com/verdant-lab/pythia/pkg/service/language"
	"github.com/verdant-lab/pythia/pkg/service/reformulate"
	"github.com/verdant-lab/pythia/pkg/usecase"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

// engineConfig bundles the flag groups every engine-backed command shares
type engineConfig struct {
	llm       config.LLM
	repo      config.Repository
	profile   config.Profile
	slack     config.Slack
	sources   config.Sources
	retrieval config.Retrieval
}

func (x *engineConfig) flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.llm.Flags()...)
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.profile.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.sources.Flags()...)
	flags = append(flags, x.retrieval.Flags()...)
	return flags
}

// engine is the assembled QA engine behind the serve, ingest, ask and eval
// commands
type engine struct {
	repo    interfaces.Repository
	uc      *usecase.UseCases
	profile *domainConfig.Profile
	llm     gollem.LLMClient
}

// Close releases the repository client
func (e *engine) Close() {
	if err := e.repo.Close(); err != nil {
		logging.Default().Error("failed to close repository", "error", err.Error())
	}
}

// buildEngine wires the LLM client, the services and the repository into the
// use case layer, following the flag groups
func buildEngine(ctx context.Context, cfg *engineConfig) (*engine, error) {
	llmClient, err := cfg.llm.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure LLM provider")
	}

	embedder, err := cfg.llm.ConfigureEmbedder(llmClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure embedder")
	}

	profile, err := cfg.profile.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load brand profile")
	}

	answers, err := answer.New(llmClient, profile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create answer service")
	}
	rewriter, err := reformulate.New(llmClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create reformulation service")
	}
	languages, err := language.New(llmClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create language service")
	}

	ucOpts := cfg.retrieval.Options()

	chunker, err := cfg.sources.ConfigureChunker()
	if err != nil {
		return nil, err
	}
	ucOpts = append(ucOpts, usecase.WithChunker(chunker))

	sources, err := cfg.sources.Configure(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) > 0 {
		ucOpts = append(ucOpts, usecase.WithSources(sources...))
	}

	notifier, err := cfg.slack.Configure(profile.SupportHeader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure Slack notifier")
	}
	if notifier != nil {
		ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
		logging.Default().Info("Slack handoff notices enabled")
	} else {
		logging.Default().Info("Slack not configured, handoffs are logged only")
	}

	repo, err := cfg.repo.Configure(ctx, cfg.llm.Dimension())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	uc, err := usecase.New(repo, embedder, answers, rewriter, languages, ucOpts...)
	if err != nil {
		if cerr := repo.Close(); cerr != nil {
			logging.Default().Error("failed to close repository", "error", cerr.Error())
		}
		return nil, goerr.Wrap(err, "failed to create use cases")
	}

	return &engine{
		repo:    repo,
		uc:      uc,
		profile: profile,
		llm:     llmClient,
	}, nil
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/cli/config"
	"github.com/verdant-lab/pythia/pkg/usecase"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

func cmdValidate() *cli.Command {
	var (
		checkIndex bool
		profileCfg config.Profile
		sourcesCfg config.Sources
		repoCfg    config.Repository
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "check-index",
			Usage:       "Also check the vector index for consistency",
			Destination: &checkIndex,
		},
	}
	flags = append(flags, profileCfg.Flags()...)
	flags = append(flags, sourcesCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the brand profile and optionally check index consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: brand profile and chunking window, no network needed
			profile, err := profileCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "brand profile validation failed")
			}
			logger.Info("Brand profile validated",
				"name", profile.Name,
				"product_line", profile.ProductLine,
				"assistant", profile.AssistantName,
				"topics", len(profile.Topics),
			)

			if _, err := sourcesCfg.ConfigureChunker(); err != nil {
				return goerr.Wrap(err, "chunking validation failed")
			}

			if dir := sourcesCfg.KBDir(); dir != "" {
				if _, err := os.Stat(dir); err != nil {
					return goerr.Wrap(err, "knowledge base directory is not readable",
						goerr.V("kb_dir", dir))
				}
				logger.Info("Knowledge base directory found", "kb_dir", dir)
			}

			// Step 2: optional index consistency check
			if !checkIndex && repoCfg.ProjectID() == "" {
				logger.Info("No index check requested, skipping index consistency check")
				return nil
			}

			repo, err := repoCfg.Configure(ctx, 0)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			result, err := usecase.ValidateIndex(ctx, repo)
			if err != nil {
				return goerr.Wrap(err, "index consistency check failed")
			}

			if result.HasIssues() {
				for _, issue := range result.Issues {
					logger.Warn("Index consistency issue found",
						"source", issue.Source,
						"chunk_id", issue.ChunkID,
						"message", issue.Message,
					)
				}
				return fmt.Errorf("index consistency check found %d issue(s)", len(result.Issues))
			}

			logger.Info("Index consistency check passed",
				"chunks", result.Chunks,
				"sources", result.Sources,
			)
			return nil
		},
	}
}

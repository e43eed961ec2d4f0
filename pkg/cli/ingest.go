package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var (
		refresh   bool
		engineCfg engineConfig
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "refresh",
			Usage:       "Re-embed documents even when an unchanged copy is already indexed",
			Destination: &refresh,
		},
	}
	flags = append(flags, engineCfg.flags()...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Chunk, embed and index the configured corpus sources",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !engineCfg.sources.IsConfigured() {
				return goerr.New("no corpus sources configured, set --kb-dir, --gcs-bucket or --notion-token")
			}

			eng, err := buildEngine(ctx, &engineCfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			start := time.Now()
			stats, err := eng.uc.Ingest(ctx, refresh)
			if err != nil {
				return err
			}

			color.New(color.Bold).Println("Ingestion complete")
			fmt.Printf("  Ingested: %s\n", color.GreenString("%d", stats.Ingested))
			fmt.Printf("  Skipped:  %d\n", stats.Skipped)
			fmt.Printf("  Removed:  %d\n", stats.Removed)
			fmt.Printf("  Chunks:   %d\n", stats.Chunks)
			if stats.Failed > 0 {
				fmt.Printf("  Failed:   %s\n", color.RedString("%d", stats.Failed))
				for _, ingErr := range stats.Errors {
					fmt.Printf("    %s %s: %s\n", color.RedString("✗"), ingErr.Source, ingErr.Reason)
				}
			}
			fmt.Printf("  Elapsed:  %s\n", time.Since(start).Round(time.Millisecond))

			return nil
		},
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/usecase"
)

func cmdAsk() *cli.Command {
	var (
		historyPath string
		sessionID   string
		engineCfg   engineConfig
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history",
			Usage:       "Path to a JSON file with prior conversation turns",
			Destination: &historyPath,
		},
		&cli.StringFlag{
			Name:        "session",
			Usage:       "Session ID to attribute the question to",
			Value:       "cli",
			Destination: &sessionID,
		},
	}
	flags = append(flags, engineCfg.flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a single question from the command line",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(c.Args().First())
			if question == "" {
				return goerr.New(`question is required, e.g. pythia ask "How do I reset my password?"`)
			}

			history, err := loadHistory(historyPath)
			if err != nil {
				return err
			}

			eng, err := buildEngine(ctx, &engineCfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			start := time.Now()
			ans, err := eng.uc.Query(ctx, &usecase.QueryInput{
				SessionID: sessionID,
				Message:   question,
				History:   history,
			})
			if err != nil {
				return err
			}

			printAnswer(ans, time.Since(start))
			return nil
		},
	}
}

// historyTurn is one entry of the --history file
type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func loadHistory(path string) (model.History, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history file", goerr.V("path", path))
	}

	var turns []historyTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, goerr.Wrap(err, "failed to parse history file", goerr.V("path", path))
	}

	history := make(model.History, 0, len(turns))
	for _, turn := range turns {
		role, err := types.ParseRole(turn.Role)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid role in history file", goerr.V("path", path))
		}
		history = append(history, model.Turn{Role: role, Content: turn.Content})
	}

	return history, nil
}

func printAnswer(ans *model.Answer, elapsed time.Duration) {
	fmt.Println(ans.Text)
	fmt.Println()

	if ans.HumanRequested {
		color.Yellow("A human handoff was requested; support has been notified.")
	}
	if ans.Unknown {
		color.Yellow("The knowledge base does not cover this question.")
	}

	faint := color.New(color.Faint)
	if sources := answerSources(ans); len(sources) > 0 {
		faint.Printf("Sources: %s\n", strings.Join(sources, ", "))
	}
	faint.Printf("Answered in %s (%s)\n", elapsed.Round(time.Millisecond), ans.Language)
}

// answerSources lists the distinct source documents in ranking order
func answerSources(ans *model.Answer) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, chunk := range ans.Sources {
		if seen[chunk.Source] {
			continue
		}
		seen[chunk.Source] = true
		sources = append(sources, chunk.Source)
	}
	return sources
}

package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/service/slack"
)

// Slack holds CLI flags for the human-handoff notifier
type Slack struct {
	botToken string
	channel  string
	header   string
}

// Flags returns CLI flags for Slack configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for handoff notices",
			Category:    "Slack",
			Sources:     cli.EnvVars("PYTHIA_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Channel where handoff notices are posted",
			Category:    "Slack",
			Sources:     cli.EnvVars("PYTHIA_SLACK_CHANNEL"),
			Destination: &x.channel,
		},
		&cli.StringFlag{
			Name:        "slack-header",
			Usage:       "Notice title (brand support header when empty)",
			Category:    "Slack",
			Sources:     cli.EnvVars("PYTHIA_SLACK_HEADER"),
			Destination: &x.header,
		},
	}
}

// IsConfigured checks if the Slack notifier is fully configured
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channel != ""
}

// Configure creates the handoff notifier if Slack is configured. Returns nil
// when it is not; escalations are then logged but not delivered anywhere.
func (x *Slack) Configure(defaultHeader string) (slack.Service, error) {
	if x.botToken == "" && x.channel == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.New("both slack-bot-token and slack-channel are required for handoff notices")
	}

	header := x.header
	if header == "" {
		header = defaultHeader
	}

	svc, err := slack.New(x.botToken, x.channel, slack.WithHeader(header))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack notifier")
	}

	return svc, nil
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channel),
		slog.String("header", x.header),
	)
}

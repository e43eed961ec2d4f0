package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
)

const (
	// DefaultHeader titles handoff notices when no brand header is configured
	DefaultHeader = "Customer Support"

	// how much of the conversation a notice carries
	handoffHistoryTurns = 6
	handoffClipRunes    = 200
)

// client implements Service interface
type client struct {
	api     *slack.Client
	channel string
	header  string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHeader sets the notice title, typically the brand's support header
func WithHeader(header string) Option {
	return func(c *client) {
		if header != "" {
			c.header = header
		}
	}
}

// New creates a Slack notifier posting to the given channel
func New(token, channel string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channel == "" {
		return nil, goerr.New("Slack channel is required")
	}

	c := &client{
		api:     slack.New(token),
		channel: channel,
		header:  DefaultHeader,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NotifyHandoff posts a Block Kit handoff notice to the support channel
func (c *client) NotifyHandoff(ctx context.Context, handoff *Handoff) error {
	if handoff == nil {
		return goerr.New("handoff is required")
	}

	blocks := buildHandoffBlocks(handoff, c.header)
	fallback := fmt.Sprintf("%s: a customer asked for human help (session %s)",
		c.header, handoff.SessionID)

	_, _, err := c.api.PostMessageContext(ctx, c.channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallback, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post handoff notice",
			goerr.V("channel", c.channel),
			goerr.V("session_id", handoff.SessionID),
		)
	}

	return nil
}

// buildHandoffBlocks constructs the Block Kit blocks for a handoff notice
func buildHandoffBlocks(handoff *Handoff, header string) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, ":wave: "+header, true, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"A customer asked to speak with a colleague.\n*Question:* "+handoff.Question,
				false, false),
			nil, nil,
		),
	}

	if transcript := renderTranscript(handoff.History); transcript != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				"*Recent conversation:*\n"+transcript,
				false, false),
			nil, nil,
		))
	}

	session := handoff.SessionID
	if session == "" {
		session = "unknown"
	}
	contextText := strings.Join([]string{
		"Session: " + session,
		"Language: " + handoff.Language.Normalize().String(),
	}, "  |  ")

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, contextText, false, false),
	))

	return blocks
}

// renderTranscript renders the conversation tail as quoted markdown lines
func renderTranscript(history model.History) string {
	recent := history.Tail(handoffHistoryTurns).Clipped(handoffClipRunes)
	lines := make([]string, 0, len(recent))
	for _, turn := range recent {
		label := "Customer"
		if turn.Role == types.RoleAssistant {
			label = "Bot"
		}
		lines = append(lines, fmt.Sprintf("> *%s:* %s", label, turn.Content))
	}
	return strings.Join(lines, "\n")
}

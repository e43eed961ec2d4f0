package slack

import (
	"context"

	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
)

// Handoff is a request for human assistance raised from a chat session
type Handoff struct {
	SessionID string
	Question  string
	Language  types.Language
	History   model.History
}

// Service posts handoff notices to the support channel when a customer
// asks for a human. Posting is best-effort from the caller's point of
// view: the chat response does not wait for Slack.
type Service interface {
	NotifyHandoff(ctx context.Context, handoff *Handoff) error
}

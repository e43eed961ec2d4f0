package model

import "github.com/verdant-lab/pythia/pkg/domain/types"

// Turn is a single message in the conversation history
type Turn struct {
	Role    types.Role
	Content string
}

// History is the prior conversation in chronological order. It is
// read-only input to the answering pipeline and is never persisted.
type History []Turn

// Tail returns the last n turns, or the whole history when it is shorter
func (h History) Tail(n int) History {
	if n <= 0 || len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// Clipped returns a copy with each turn's content truncated to max runes.
// Truncation counts runes rather than bytes so multi-byte text is not cut
// mid-character.
func (h History) Clipped(max int) History {
	if max <= 0 {
		return h
	}
	out := make(History, len(h))
	for i, turn := range h {
		out[i] = turn
		runes := []rune(turn.Content)
		if len(runes) > max {
			out[i].Content = string(runes[:max])
		}
	}
	return out
}

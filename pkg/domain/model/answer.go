package model

import (
	"strings"

	"github.com/verdant-lab/pythia/pkg/domain/types"
)

// Sentinel strings the generation model is instructed to emit verbatim.
// Only an exact match (after trimming surrounding whitespace) counts;
// a sentinel embedded inside a longer answer passes through as text.
const (
	UnknownSignal        = "__UNKNOWN__"
	HumanRequestedSignal = "__HUMAN_REQUESTED__"
)

// Answer is the outcome of one answering run. Unknown and HumanRequested
// are successful outcomes, not errors: infrastructure failures surface as
// Go errors from the pipeline instead.
type Answer struct {
	Text           string
	Language       types.Language // language the customer wrote in
	Unknown        bool
	HumanRequested bool
	Sources        []*Chunk // context chunks the answer was grounded on
}

// ParseAnswer classifies a raw model response into an Answer
func ParseAnswer(raw string, sources []*Chunk) *Answer {
	text := strings.TrimSpace(raw)
	switch text {
	case UnknownSignal:
		return &Answer{Text: text, Unknown: true}
	case HumanRequestedSignal:
		return &Answer{Text: text, HumanRequested: true}
	default:
		return &Answer{Text: text, Sources: sources}
	}
}

package llm

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrEmbedding marks failures of the embedding provider. Callers treat
	// it as an infrastructure error, never as a no-results outcome.
	ErrEmbedding = goerr.New("embedding generation failed")

	// ErrGeneration marks failures of the chat completion provider during
	// answer synthesis. It must never be silently converted into an
	// unknown-answer outcome.
	ErrGeneration = goerr.New("answer generation failed")
)

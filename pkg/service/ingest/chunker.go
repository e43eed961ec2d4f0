package ingest

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// Chunker splits document text into overlapping windows sized for the
// embedding model. Windows prefer to end at a newline so paragraphs stay
// together, and each window repeats the tail of the previous one so facts
// spanning a boundary survive in at least one chunk.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters. The newline break point can sit
// just past half the window, so the overlap must stay at or below half the
// size to keep the cursor moving forward on every step.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, goerr.New("chunk size must be positive", goerr.V("size", size))
	}
	if overlap < 0 {
		return nil, goerr.New("chunk overlap must not be negative", goerr.V("overlap", overlap))
	}
	if overlap*2 > size {
		return nil, goerr.New("chunk overlap must not exceed half the chunk size",
			goerr.V("size", size), goerr.V("overlap", overlap))
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

// DefaultChunker returns a chunker with the standard window parameters
func DefaultChunker() *Chunker {
	return &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
}

// Split cuts the text into chunks carrying the document's metadata. Indexes
// are assigned to emitted chunks in order; whitespace-only windows are
// dropped without consuming an index. Offsets count runes, not bytes, so
// multibyte text never gets cut mid-character.
func (c *Chunker) Split(source, text string, meta model.Metadata) []*model.Chunk {
	runes := []rune(text)
	textLen := len(runes)

	var chunks []*model.Chunk
	start := 0
	index := 0

	for start < textLen {
		end := start + c.size
		if end < textLen {
			// Break at the last newline in the window when it sits past the
			// halfway point, so windows end on paragraph boundaries.
			if nl := lastNewline(runes[start:end]); nl > c.size/2 {
				end = start + nl + 1
			}
		}

		sliceEnd := end
		if sliceEnd > textLen {
			sliceEnd = textLen
		}

		window := string(runes[start:sliceEnd])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, model.NewChunk(source, index, window, meta))
			index++
		}

		// The raw end drives the cursor even when the slice was clamped, so
		// a final partial window is never re-emitted as an overlap tail.
		start = end - c.overlap
	}

	return chunks
}

func lastNewline(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '\n' {
			return i
		}
	}
	return -1
}

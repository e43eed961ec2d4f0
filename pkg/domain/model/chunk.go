package model

import (
	"fmt"

	"github.com/verdant-lab/pythia/pkg/domain/types"
)

// ChunkID is a deterministic identifier for a chunk, derived from its
// source document name and position. Re-ingesting the same document yields
// the same IDs, which makes index writes idempotent upserts.
type ChunkID string

// NewChunkID builds the canonical chunk identifier for a source and position
func NewChunkID(source string, index int) ChunkID {
	return ChunkID(fmt.Sprintf("%s_chunk_%d", source, index))
}

// String returns the string representation of the chunk ID
func (id ChunkID) String() string {
	return string(id)
}

// Metadata holds the attributes extracted from a document's header markers.
// All fields may be empty when the document carries no recognized markers.
type Metadata struct {
	DocType  types.DocType
	Subject  string // product or topic name from the header line
	Category string
}

// Chunk is one retrievable text segment of a source document
type Chunk struct {
	ID       ChunkID
	Source   string // document name this chunk was cut from
	Index    int    // zero-based position within the source
	Text     string
	DocType  types.DocType
	Subject  string
	Category string
}

// NewChunk builds a chunk with its deterministic ID and the document's metadata
func NewChunk(source string, index int, text string, meta Metadata) *Chunk {
	return &Chunk{
		ID:       NewChunkID(source, index),
		Source:   source,
		Index:    index,
		Text:     text,
		DocType:  meta.DocType.Normalize(),
		Subject:  meta.Subject,
		Category: meta.Category,
	}
}

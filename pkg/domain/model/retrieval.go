package model

// ScoredChunk pairs a chunk with its cosine distance to the query vector.
// Distance is in [0, 2]; lower means more similar.
type ScoredChunk struct {
	Chunk    *Chunk
	Distance float64
}

// RetrievalParams controls candidate fetch and filtering during search
type RetrievalParams struct {
	Candidates   int     // how many nearest chunks to fetch before filtering
	Threshold    float64 // cosine distance cutoff; candidates above it are dropped
	MaxPerSource int     // diversity cap per source document
	MaxResults   int     // final context size
}

// DefaultRetrievalParams are tuned for a corpus of product sheets and
// knowledge articles in the low hundreds of documents.
func DefaultRetrievalParams() RetrievalParams {
	return RetrievalParams{
		Candidates:   10,
		Threshold:    1.2,
		MaxPerSource: 2,
		MaxResults:   5,
	}
}

// Normalize fills zero-valued fields with defaults
func (p RetrievalParams) Normalize() RetrievalParams {
	def := DefaultRetrievalParams()
	if p.Candidates <= 0 {
		p.Candidates = def.Candidates
	}
	if p.Threshold <= 0 {
		p.Threshold = def.Threshold
	}
	if p.MaxPerSource <= 0 {
		p.MaxPerSource = def.MaxPerSource
	}
	if p.MaxResults <= 0 {
		p.MaxResults = def.MaxResults
	}
	if p.Candidates < p.MaxResults {
		p.Candidates = p.MaxResults
	}
	return p
}

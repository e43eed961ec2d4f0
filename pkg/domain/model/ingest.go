package model

// IngestError records one document that could not be indexed. The batch
// continues past it; the error is reported instead of raised.
type IngestError struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// IngestStats summarizes one ingestion run
type IngestStats struct {
	Ingested int           `json:"ingested"` // documents chunked, embedded and stored
	Skipped  int           `json:"skipped"`  // documents already indexed (no Refresh)
	Removed  int           `json:"removed"`  // stale sources deleted from the index
	Failed   int           `json:"failed"`   // documents that errored
	Chunks   int           `json:"chunks"`   // chunks written across all documents
	Errors   []IngestError `json:"errors,omitempty"`
}

// IndexStats describes the current contents of the vector index
type IndexStats struct {
	Chunks  int      `json:"chunks"`
	Sources []string `json:"sources"`
}

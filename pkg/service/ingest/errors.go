package ingest

import "github.com/m-mizutani/goerr/v2"

// ErrBadDocument marks a document that cannot be ingested, such as one with
// an empty name or no text content. The pipeline isolates these: the document
// is counted as failed and the rest of the batch continues.
var ErrBadDocument = goerr.New("document cannot be ingested")

package worker

// Export internal functions for testing
var IsCorpusChange = isCorpusChange

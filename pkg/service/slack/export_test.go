package slack

// Export internal functions for testing
var (
	BuildHandoffBlocks = buildHandoffBlocks
	RenderTranscript   = renderTranscript
)

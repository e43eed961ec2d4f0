package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, apiKey, geminiProject string, dimension int) *LLM {
	return &LLM{
		provider:      provider,
		apiKey:        apiKey,
		geminiProject: geminiProject,
		dimension:     dimension,
		embedBurst:    1,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, databaseID, collectionPrefix string) *Repository {
	return &Repository{
		backend:          backend,
		projectID:        projectID,
		databaseID:       databaseID,
		collectionPrefix: collectionPrefix,
	}
}

// NewProfileForTest creates a Profile config for testing purposes
func NewProfileForTest(name, path string) *Profile {
	return &Profile{
		name: name,
		path: path,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channel, header string) *Slack {
	return &Slack{
		botToken: botToken,
		channel:  channel,
		header:   header,
	}
}

// NewSourcesForTest creates a Sources config for testing purposes
func NewSourcesForTest(kbDir, notionToken, notionDatabase string, chunkSize, chunkOverlap int) *Sources {
	return &Sources{
		kbDir:          kbDir,
		notionToken:    notionToken,
		notionDatabase: notionDatabase,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
	}
}

// NewRetrievalForTest creates a Retrieval config for testing purposes
func NewRetrievalForTest(candidates int, threshold float64, maxPerSource, maxResults int) *Retrieval {
	return &Retrieval{
		candidates:   candidates,
		threshold:    threshold,
		maxPerSource: maxPerSource,
		maxResults:   maxResults,
	}
}

// NewSentryForTest creates a Sentry config for testing purposes
func NewSentryForTest(dsn, environment string) *Sentry {
	return &Sentry{
		dsn:         dsn,
		environment: environment,
	}
}

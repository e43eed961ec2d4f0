package cli

// EvalResult exposes the internal result type for summary tests
type EvalResult = evalResult

// EvalSummary exposes the internal summary type for summary tests
type EvalSummary = evalSummary

var (
	KeywordScore        = keywordScore
	ParseJudgment       = parseJudgment
	LoadEvalSet         = loadEvalSet
	LoadHistory         = loadHistory
	Summarize           = summarize
	SummarizeByCategory = summarizeByCategory
)

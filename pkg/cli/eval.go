package cli

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/usecase"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

//go:embed prompt/judge_system.md
var judgeSystemPrompt string

// evalCase is one question of the evaluation set
type evalCase struct {
	Question      string   `json:"question"`
	Keywords      []string `json:"expected_answer_keywords"`
	Category      string   `json:"category"`
	ExpectUnknown bool     `json:"expect_unknown"`
}

// evalResult is the scored outcome of one case
type evalResult struct {
	Question          string  `json:"question"`
	Answer            string  `json:"answer"`
	Category          string  `json:"category"`
	ExpectUnknown     bool    `json:"expect_unknown"`
	KeywordScore      float64 `json:"keyword_score"`
	JudgeScore        int     `json:"llm_score"`
	JudgeReasoning    string  `json:"llm_reasoning,omitempty"`
	HallucinationPass bool    `json:"hallucination_pass"`
	LatencySeconds    float64 `json:"latency_seconds"`
	Passed            bool    `json:"passed"`
}

// evalSummary aggregates results for one category or the whole run
type evalSummary struct {
	Total           int     `json:"total_questions"`
	Passed          int     `json:"passed"`
	PassRate        float64 `json:"pass_rate"`
	AvgLatency      float64 `json:"avg_latency_seconds"`
	AvgKeywordScore float64 `json:"avg_keyword_score"`
	AvgJudgeScore   float64 `json:"avg_llm_score"`
}

func cmdEval() *cli.Command {
	var (
		inputPath   string
		outputPath  string
		judge       bool
		minPassRate float64
		engineCfg   engineConfig
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Path to the evaluation set (JSON array of test cases)",
			Required:    true,
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Write detailed results to this JSON file",
			Destination: &outputPath,
		},
		&cli.BoolFlag{
			Name:        "judge",
			Usage:       "Rate answer quality with an LLM judge (costs one extra call per case)",
			Value:       true,
			Destination: &judge,
		},
		&cli.FloatFlag{
			Name:        "min-pass-rate",
			Usage:       "Fail the command when the overall pass rate falls below this fraction",
			Destination: &minPassRate,
		},
	}
	flags = append(flags, engineCfg.flags()...)

	return &cli.Command{
		Name:  "eval",
		Usage: "Run the evaluation set against the indexed corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cases, err := loadEvalSet(inputPath)
			if err != nil {
				return err
			}

			eng, err := buildEngine(ctx, &engineCfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			fmt.Printf("Loaded %d test questions from %s\n\n", len(cases), inputPath)

			results := make([]evalResult, 0, len(cases))
			for i, tc := range cases {
				fmt.Printf("[%d/%d] %s\n", i+1, len(cases), clipText(tc.Question, 60))
				res := evalOne(ctx, eng, &tc, judge)
				results = append(results, res)

				mark := color.GreenString("✓")
				if !res.Passed {
					mark = color.RedString("✗")
				}
				fmt.Printf("    %s keyword %.2f | judge %d/5 | latency %.2fs\n",
					mark, res.KeywordScore, res.JudgeScore, res.LatencySeconds)
			}

			overall := summarize(results)
			byCategory := summarizeByCategory(results)
			printEvalSummary(overall, byCategory)

			if outputPath != "" {
				if err := writeEvalReport(outputPath, overall, byCategory, results); err != nil {
					return err
				}
				fmt.Printf("\nResults saved to %s\n", outputPath)
			}

			if minPassRate > 0 && overall.PassRate < minPassRate {
				return goerr.New("pass rate below threshold",
					goerr.V("pass_rate", overall.PassRate),
					goerr.V("min_pass_rate", minPassRate),
				)
			}
			return nil
		},
	}
}

// evalOne answers one test case and scores it. Query failures count as a
// failed case rather than aborting the run.
func evalOne(ctx context.Context, eng *engine, tc *evalCase, judge bool) evalResult {
	start := time.Now()
	ans, err := eng.uc.Query(ctx, &usecase.QueryInput{
		SessionID: "eval-" + uuid.NewString(),
		Message:   tc.Question,
	})
	latency := time.Since(start).Seconds()

	var answerText string
	var unknown bool
	if err != nil {
		logging.From(ctx).Warn("evaluation query failed",
			"question", tc.Question,
			"error", err.Error(),
		)
		answerText = "ERROR: " + err.Error()
	} else {
		answerText = ans.Text
		unknown = ans.Unknown
	}

	hallucinationPass := unknown == tc.ExpectUnknown

	var judgeScore int
	var judgeReasoning string
	switch {
	case tc.ExpectUnknown:
		// no quality to judge, only whether the engine refused
		judgeScore, judgeReasoning = 1, "Hallucination check"
		if hallucinationPass {
			judgeScore = 5
		}
	case judge && err == nil:
		judgeScore, judgeReasoning = judgeAnswer(ctx, eng.llm, tc, answerText)
	}

	passed := hallucinationPass
	if judge && !tc.ExpectUnknown {
		passed = passed && judgeScore >= 3
	}

	return evalResult{
		Question:          tc.Question,
		Answer:            answerText,
		Category:          tc.Category,
		ExpectUnknown:     tc.ExpectUnknown,
		KeywordScore:      keywordScore(answerText, tc.Keywords),
		JudgeScore:        judgeScore,
		JudgeReasoning:    judgeReasoning,
		HallucinationPass: hallucinationPass,
		LatencySeconds:    latency,
		Passed:            passed,
	}
}

// keywordScore is the fraction of expected keywords found in the answer,
// compared case-insensitively. An empty keyword list scores 1.0.
func keywordScore(answer string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 1.0
	}
	lower := strings.ToLower(answer)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// judgeAnswer asks the LLM to rate the answer 1-5. Judge failures degrade to
// score 0 so one flaky call does not abort the run.
func judgeAnswer(ctx context.Context, llmClient gollem.LLMClient, tc *evalCase, answer string) (int, string) {
	keywords := "N/A"
	if len(tc.Keywords) > 0 {
		keywords = strings.Join(tc.Keywords, ", ")
	}
	prompt := fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nExpected topics: %s",
		tc.Question, answer, keywords)

	session, err := llmClient.NewSession(ctx, gollem.WithSessionSystemPrompt(judgeSystemPrompt))
	if err != nil {
		logging.From(ctx).Warn("failed to create judge session", "error", err.Error())
		return 0, "judge unavailable"
	}
	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		logging.From(ctx).Warn("judge call failed", "error", err.Error())
		return 0, "judge unavailable"
	}

	return parseJudgment(strings.Join(resp.Texts, "\n"))
}

// parseJudgment reads the judge's JSON verdict, tolerating markdown fences
func parseJudgment(raw string) (int, string) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var verdict struct {
		Score     int    `json:"score"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return 0, "failed to parse judge response"
	}

	if verdict.Score < 0 {
		verdict.Score = 0
	}
	if verdict.Score > 5 {
		verdict.Score = 5
	}
	return verdict.Score, verdict.Reasoning
}

func loadEvalSet(path string) ([]evalCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read evaluation set", goerr.V("path", path))
	}

	var cases []evalCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, goerr.Wrap(err, "failed to parse evaluation set", goerr.V("path", path))
	}
	if len(cases) == 0 {
		return nil, goerr.New("evaluation set is empty", goerr.V("path", path))
	}
	return cases, nil
}

func summarize(results []evalResult) evalSummary {
	s := evalSummary{Total: len(results)}
	if s.Total == 0 {
		return s
	}

	var latency, keyword, judge float64
	for _, r := range results {
		if r.Passed {
			s.Passed++
		}
		latency += r.LatencySeconds
		keyword += r.KeywordScore
		judge += float64(r.JudgeScore)
	}

	n := float64(s.Total)
	s.PassRate = float64(s.Passed) / n
	s.AvgLatency = latency / n
	s.AvgKeywordScore = keyword / n
	s.AvgJudgeScore = judge / n
	return s
}

func summarizeByCategory(results []evalResult) map[string]evalSummary {
	grouped := make(map[string][]evalResult)
	for _, r := range results {
		grouped[r.Category] = append(grouped[r.Category], r)
	}

	byCategory := make(map[string]evalSummary, len(grouped))
	for cat, rs := range grouped {
		byCategory[cat] = summarize(rs)
	}
	return byCategory
}

func printEvalSummary(overall evalSummary, byCategory map[string]evalSummary) {
	fmt.Println()
	color.New(color.Bold).Println("Evaluation summary")
	fmt.Printf("  Questions:    %d\n", overall.Total)
	fmt.Printf("  Passed:       %d\n", overall.Passed)

	rate := fmt.Sprintf("%.1f%%", overall.PassRate*100)
	if overall.Passed == overall.Total {
		rate = color.GreenString(rate)
	} else if overall.PassRate < 0.5 {
		rate = color.RedString(rate)
	}
	fmt.Printf("  Pass rate:    %s\n", rate)
	fmt.Printf("  Avg latency:  %.2fs\n", overall.AvgLatency)

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	fmt.Println()
	fmt.Println("By category:")
	for _, cat := range categories {
		s := byCategory[cat]
		fmt.Printf("  %s: %d/%d passed, keyword %.2f, judge %.1f/5, latency %.2fs\n",
			cat, s.Passed, s.Total, s.AvgKeywordScore, s.AvgJudgeScore, s.AvgLatency)
	}
}

func writeEvalReport(path string, overall evalSummary, byCategory map[string]evalSummary, results []evalResult) error {
	report := struct {
		Timestamp  string                 `json:"timestamp"`
		Summary    evalSummary            `json:"summary"`
		Categories map[string]evalSummary `json:"category_breakdown"`
		Results    []evalResult           `json:"detailed_results"`
	}{
		Timestamp:  time.Now().Format(time.RFC3339),
		Summary:    overall,
		Categories: byCategory,
		Results:    results,
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode evaluation report")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write evaluation report", goerr.V("path", path))
	}
	return nil
}

// clipText truncates s to max runes for display
func clipText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// cmd/research-agent/regression.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"research-agent/internal/common/llm"
	"research-agent/internal/models"
	parseuserintent "research-agent/internal/workers/ai-conversation/parse-user-intent"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var regressionFlags struct {
	cases           string
	outDir          string
	maxCases        int
	minAccuracy     float64
	printMismatches bool
	level           string
}

var intentRegressionCmd = &cobra.Command{
	Use:   "intent-regression",
	Short: "Run the intent classifier over labelled cases",
	RunE:  runIntentRegression,
}

func init() {
	f := intentRegressionCmd.Flags()
	f.StringVar(&regressionFlags.cases, "cases", "internal/workers/ai-conversation/parse-user-intent/testdata/intent_cases.json", "path to the labelled cases JSON file")
	f.StringVar(&regressionFlags.outDir, "out-dir", "data/intent_regression_runs", "output directory for run results")
	f.IntVar(&regressionFlags.maxCases, "max-cases", 0, "max cases to run (0 = all)")
	f.Float64Var(&regressionFlags.minAccuracy, "min-accuracy", 0.80, "exit with code 2 when accuracy is below this")
	f.BoolVar(&regressionFlags.printMismatches, "print-mismatches", false, "print mismatched cases")
	f.StringVar(&regressionFlags.level, "level", defaultRegressionLevel(), "learner level of the fixed profile (env INTENT_TEST_LEVEL)")
	rootCmd.AddCommand(intentRegressionCmd)
}

func defaultRegressionLevel() string {
	if v := strings.TrimSpace(os.Getenv("INTENT_TEST_LEVEL")); v != "" {
		return v
	}
	return string(models.LevelBeginner)
}

func runIntentRegression(cmd *cobra.Command, args []string) error {
	level, ok := models.ParseUserLevel(strings.ToLower(strings.TrimSpace(regressionFlags.level)))
	if !ok {
		return fmt.Errorf("unknown level %q (want beginner, intermediate or advanced)", regressionFlags.level)
	}

	cases, err := parseuserintent.LoadRegressionCases(regressionFlags.cases)
	if err != nil {
		return err
	}
	if n := regressionFlags.maxCases; n > 0 && n < len(cases) {
		cases = cases[:n]
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := os.MkdirAll(regressionFlags.outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	runID := time.Now().Format("20060102_150405")
	rowsPath := filepath.Join(regressionFlags.outDir, fmt.Sprintf("intent_run_%s.jsonl", runID))
	summaryPath := filepath.Join(regressionFlags.outDir, fmt.Sprintf("intent_run_%s_summary.json", runID))

	rowsFile, err := os.Create(rowsPath)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer rowsFile.Close()
	enc := json.NewEncoder(rowsFile)

	handler := a.intentHandler(llm.NewOpenAIClient(a.cfg.LLM, a.log))

	rows := handler.RunRegression(cmd.Context(), cases, parseuserintent.RegressionProfile(level), func(row parseuserintent.RegressionRow) {
		if err := enc.Encode(row); err != nil {
			a.log.Warn("write regression row failed", map[string]interface{}{"error": err.Error()})
		}
	})
	summary := parseuserintent.SummarizeRegression(rows)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(summaryPath, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	out := cmd.OutOrStdout()
	printRegressionSummary(out, summary)
	if regressionFlags.printMismatches {
		printMismatches(out, rows)
	}
	fmt.Fprintf(out, "\nSaved rows:    %s\nSaved summary: %s\n", rowsPath, summaryPath)

	if summary.Accuracy < regressionFlags.minAccuracy {
		return &exitError{
			code: 2,
			msg:  fmt.Sprintf("accuracy %.2f%% is below the %.2f%% threshold", summary.Accuracy*100, regressionFlags.minAccuracy*100),
		}
	}
	return nil
}

func printRegressionSummary(out io.Writer, s parseuserintent.RegressionSummary) {
	color.New(color.Bold).Fprintln(out, "\n=== Intent Regression Summary ===")
	fmt.Fprintf(out, "Total cases:     %d\n", s.Total)
	fmt.Fprintf(out, "Correct:         %d\n", s.Correct)
	fmt.Fprintf(out, "Accuracy:        %.2f%%\n", s.Accuracy*100)
	fmt.Fprintf(out, "Clarify Rate:    %.2f%%\n", s.ClarifyRate*100)
	fmt.Fprintf(out, "Avg Confidence:  %.3f\n", s.AvgConfidence)
	fmt.Fprintf(out, "LLM Use Rate:    %.2f%%\n", s.UseLLMRate*100)

	fmt.Fprintln(out, "\nConfusion by expected intent:")
	expected := make([]string, 0, len(s.ConfusionByExpected))
	for k := range s.ConfusionByExpected {
		expected = append(expected, k)
	}
	sort.Strings(expected)
	for _, exp := range expected {
		preds := s.ConfusionByExpected[exp]
		names := make([]string, 0, len(preds))
		for p := range preds {
			names = append(names, p)
		}
		sort.Slice(names, func(i, j int) bool {
			if preds[names[i]] != preds[names[j]] {
				return preds[names[i]] > preds[names[j]]
			}
			return names[i] < names[j]
		})
		fmt.Fprintf(out, "  - %s:", exp)
		for i, p := range names {
			sep := ","
			if i == 0 {
				sep = ""
			}
			label := p
			if label == "" {
				label = "(error)"
			}
			fmt.Fprintf(out, "%s %s=%d", sep, label, preds[p])
		}
		fmt.Fprintln(out)
	}
}

func printMismatches(out io.Writer, rows []parseuserintent.RegressionRow) {
	red := color.New(color.FgRed)
	fmt.Fprintln(out, "\nMismatches:")
	for _, r := range rows {
		if r.Matched() {
			continue
		}
		red.Fprintf(out, "  [%s] expected=%s predicted=%s conf=%.2f llm=%t\n", r.ID, r.ExpectedIntent, r.PredictedIntent, r.Confidence, r.UseLLM)
		fmt.Fprintf(out, "      %s\n", r.Query)
		if r.Error != "" {
			fmt.Fprintf(out, "      error: %s\n", r.Error)
		}
	}
}

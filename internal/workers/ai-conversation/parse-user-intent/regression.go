package parseuserintent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"research-agent/internal/models"
)

// RegressionCase is one labelled query from a regression fixture file.
type RegressionCase struct {
	ID             string `json:"id"`
	Query          string `json:"query"`
	ExpectedIntent string `json:"expected_intent"`
	Note           string `json:"note,omitempty"`
}

type RegressionRow struct {
	ID                          string  `json:"id"`
	Query                       string  `json:"query"`
	ExpectedIntent              string  `json:"expected_intent"`
	PredictedIntent             string  `json:"predicted_intent"`
	Confidence                  float64 `json:"confidence"`
	UseLLM                      bool    `json:"use_llm"`
	ShouldAskClarifyingQuestion bool    `json:"should_ask_clarifying_question"`
	ClarifyingQuestion          string  `json:"clarifying_question,omitempty"`
	Rationale                   string  `json:"rationale,omitempty"`
	SuggestedOutput             string  `json:"suggested_output,omitempty"`
	Error                       string  `json:"error,omitempty"`
	Note                        string  `json:"note,omitempty"`
}

func (r RegressionRow) Matched() bool {
	return r.PredictedIntent == r.ExpectedIntent
}

type RegressionSummary struct {
	Total               int                       `json:"total"`
	Correct             int                       `json:"correct"`
	Accuracy            float64                   `json:"accuracy"`
	ClarifyRate         float64                   `json:"clarify_rate"`
	AvgConfidence       float64                   `json:"avg_confidence"`
	UseLLMRate          float64                   `json:"use_llm_rate"`
	ConfusionByExpected map[string]map[string]int `json:"confusion_by_expected"`
}

func LoadRegressionCases(path string) ([]RegressionCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var cases []RegressionCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	return cases, nil
}

// RegressionProfile is the minimal, stable profile used for every case so
// profile content does not sway results.
func RegressionProfile(level models.UserLevel) *models.UserProfile {
	return &models.UserProfile{UserID: "test_user", Level: level, PreferredOutput: models.OutputBalanced}
}

// RunRegression classifies each case in order. A failed classification is
// recorded on its row and counts as a mismatch. onRow, when set, sees each
// row as soon as it is produced.
func (h *Handler) RunRegression(ctx context.Context, cases []RegressionCase, profile *models.UserProfile, onRow func(RegressionRow)) []RegressionRow {
	rows := make([]RegressionRow, 0, len(cases))
	for _, c := range cases {
		row := RegressionRow{
			ID:             c.ID,
			Query:          c.Query,
			ExpectedIntent: c.ExpectedIntent,
			Note:           c.Note,
		}
		res, err := h.Classify(ctx, c.Query, profile)
		if err != nil {
			row.Error = err.Error()
		} else {
			row.PredictedIntent = string(res.Intent)
			row.Confidence = res.Confidence
			row.UseLLM = res.UseLLM
			row.ShouldAskClarifyingQuestion = res.ShouldAskClarifyingQuestion
			row.ClarifyingQuestion = res.ClarifyingQuestion
			row.Rationale = res.Rationale
			row.SuggestedOutput = string(res.SuggestedOutput)
		}
		if onRow != nil {
			onRow(row)
		}
		rows = append(rows, row)
	}
	return rows
}

func SummarizeRegression(rows []RegressionRow) RegressionSummary {
	s := RegressionSummary{Total: len(rows), ConfusionByExpected: map[string]map[string]int{}}
	asks, llmUses := 0, 0
	confSum := 0.0
	for _, r := range rows {
		if r.Matched() {
			s.Correct++
		}
		if r.ShouldAskClarifyingQuestion {
			asks++
		}
		if r.UseLLM {
			llmUses++
		}
		confSum += r.Confidence
		if s.ConfusionByExpected[r.ExpectedIntent] == nil {
			s.ConfusionByExpected[r.ExpectedIntent] = map[string]int{}
		}
		s.ConfusionByExpected[r.ExpectedIntent][r.PredictedIntent]++
	}
	if s.Total > 0 {
		n := float64(s.Total)
		s.Accuracy = round4(float64(s.Correct) / n)
		s.ClarifyRate = round4(float64(asks) / n)
		s.AvgConfidence = round4(confSum / n)
		s.UseLLMRate = round4(float64(llmUses) / n)
	}
	return s
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
